package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Evaluable is the capability the deadline evaluator needs from an entity:
// its current status and a lookup of stage timestamps by anchor field name.
// A nil anchor means the stage has not been reached and its clock has not
// started.
type Evaluable interface {
	WorkflowStatus() Status
	AnchorTime(field string) *time.Time
}

// LabOrderSnapshot is the evaluable projection of a lab order.
type LabOrderSnapshot struct {
	ID      uuid.UUID
	Status  Status
	Anchors map[string]*time.Time
}

func (s LabOrderSnapshot) WorkflowStatus() Status { return s.Status }

func (s LabOrderSnapshot) AnchorTime(field string) *time.Time { return s.Anchors[field] }

// ConsultationSnapshot is the evaluable projection of a consultation. No SLA
// rules are currently defined for consultations, so it carries no anchors;
// every evaluation takes the no-rule ON_TIME path.
type ConsultationSnapshot struct {
	ID     uuid.UUID
	Status Status
}

func (s ConsultationSnapshot) WorkflowStatus() Status { return s.Status }

func (s ConsultationSnapshot) AnchorTime(string) *time.Time { return nil }
