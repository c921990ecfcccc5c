// Package workflow implements the state machines and SLA deadline rules for
// the two clinical lifecycles the platform tracks: the consultation review
// lifecycle and the lab order collection-to-results lifecycle. Everything in
// this package is pure computation — callers own all I/O.
package workflow

// Status is a lifecycle status value. Consultation and lab order statuses
// share the type but belong to separate workflows; a Validator only accepts
// statuses from its own workflow.
type Status string

func (s Status) String() string { return string(s) }

// Consultation lifecycle.
const (
	ConsultPendingAssessment Status = "PENDING_ASSESSMENT"
	ConsultAIReviewing       Status = "AI_REVIEWING"
	ConsultAIReviewed        Status = "AI_REVIEWED"
	ConsultDoctorReviewing   Status = "DOCTOR_REVIEWING"
	ConsultVideoScheduled    Status = "VIDEO_SCHEDULED"
	ConsultApproved          Status = "APPROVED"
	ConsultRejected          Status = "REJECTED"
	ConsultClosed            Status = "CLOSED"
	ConsultCancelled         Status = "CANCELLED"
)

// Lab order lifecycle.
const (
	LabOrdered              Status = "ORDERED"
	LabSlotBooked           Status = "SLOT_BOOKED"
	LabPhlebotomistAssigned Status = "PHLEBOTOMIST_ASSIGNED"
	LabSampleCollected      Status = "SAMPLE_COLLECTED"
	LabDeliveredToLab       Status = "DELIVERED_TO_LAB"
	LabSampleReceived       Status = "SAMPLE_RECEIVED"
	LabResultsUploaded      Status = "RESULTS_UPLOADED"
	LabResultsReviewed      Status = "RESULTS_REVIEWED"
	LabCancelled            Status = "CANCELLED"
)

// Anchor field names used by the SLA rule table and snapshot lookups. They
// match the database column names of the corresponding stage timestamps.
const (
	AnchorOrderedAt         = "ordered_at"
	AnchorSlotBookedAt      = "slot_booked_at"
	AnchorDeliveredToLabAt  = "delivered_to_lab_at"
	AnchorSampleReceivedAt  = "sample_received_at"
	AnchorResultsUploadedAt = "results_uploaded_at"
)
