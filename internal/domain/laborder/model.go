package laborder

import (
	"time"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/workflow"
)

// LabOrder tracks a diagnostic order from placement through result review.
// Stage timestamps double as SLA anchors: each fulfilment stage records when
// it was entered, and deadline evaluation measures elapsed time from the
// anchor of the current status.
type LabOrder struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	ConsultationID   *uuid.UUID      `db:"consultation_id" json:"consultation_id,omitempty"`
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	PatientName      string          `db:"patient_name" json:"patient_name"`
	PatientPhone     *string         `db:"patient_phone" json:"patient_phone,omitempty"`
	LabPartner       *string         `db:"lab_partner" json:"lab_partner,omitempty"`
	LabPartnerPhone  *string         `db:"lab_partner_phone" json:"lab_partner_phone,omitempty"`
	PhlebotomistName *string         `db:"phlebotomist_name" json:"phlebotomist_name,omitempty"`
	TestPanel        *string         `db:"test_panel" json:"test_panel,omitempty"`
	Status           workflow.Status `db:"status" json:"status"`

	OrderedAt              time.Time  `db:"ordered_at" json:"ordered_at"`
	SlotBookedAt           *time.Time `db:"slot_booked_at" json:"slot_booked_at,omitempty"`
	PhlebotomistAssignedAt *time.Time `db:"phlebotomist_assigned_at" json:"phlebotomist_assigned_at,omitempty"`
	SampleCollectedAt      *time.Time `db:"sample_collected_at" json:"sample_collected_at,omitempty"`
	DeliveredToLabAt       *time.Time `db:"delivered_to_lab_at" json:"delivered_to_lab_at,omitempty"`
	SampleReceivedAt       *time.Time `db:"sample_received_at" json:"sample_received_at,omitempty"`
	ResultsUploadedAt      *time.Time `db:"results_uploaded_at" json:"results_uploaded_at,omitempty"`
	ResultsReviewedAt      *time.Time `db:"results_reviewed_at" json:"results_reviewed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// SLA is computed at read time, never persisted.
	SLA *workflow.SLAInfo `db:"-" json:"sla,omitempty"`
}

// Snapshot projects the order into the evaluator's view of it.
func (o *LabOrder) Snapshot() workflow.LabOrderSnapshot {
	ordered := o.OrderedAt
	return workflow.LabOrderSnapshot{
		ID:     o.ID,
		Status: o.Status,
		Anchors: map[string]*time.Time{
			workflow.AnchorOrderedAt:         &ordered,
			workflow.AnchorSlotBookedAt:      o.SlotBookedAt,
			workflow.AnchorDeliveredToLabAt:  o.DeliveredToLabAt,
			workflow.AnchorSampleReceivedAt:  o.SampleReceivedAt,
			workflow.AnchorResultsUploadedAt: o.ResultsUploadedAt,
		},
	}
}
