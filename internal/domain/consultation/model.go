package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/workflow"
)

// Consultation maps to the consultation table. Stage timestamps record when
// each review stage was entered; once set they are never cleared by a normal
// transition.
type Consultation struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	PatientID         uuid.UUID       `db:"patient_id" json:"patient_id"`
	PatientName       string          `db:"patient_name" json:"patient_name"`
	PatientPhone      *string         `db:"patient_phone" json:"patient_phone,omitempty"`
	Symptoms          *string         `db:"symptoms" json:"symptoms,omitempty"`
	Status            workflow.Status `db:"status" json:"status"`
	RejectionReason   *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DoctorID          *uuid.UUID      `db:"doctor_id" json:"doctor_id,omitempty"`
	AIReviewStartedAt *time.Time      `db:"ai_review_started_at" json:"ai_review_started_at,omitempty"`
	AIReviewedAt      *time.Time      `db:"ai_reviewed_at" json:"ai_reviewed_at,omitempty"`
	DoctorAssignedAt  *time.Time      `db:"doctor_assigned_at" json:"doctor_assigned_at,omitempty"`
	VideoScheduledAt  *time.Time      `db:"video_scheduled_at" json:"video_scheduled_at,omitempty"`
	CompletedAt       *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Snapshot returns the evaluable projection consumed by the SLA engine.
func (c *Consultation) Snapshot() workflow.ConsultationSnapshot {
	return workflow.ConsultationSnapshot{ID: c.ID, Status: c.Status}
}
