package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/workflow"
)

type Service struct {
	repo      Repository
	validator *workflow.Validator
	now       func() time.Time
}

// NewService wires the consultation orchestrator. The validator is injected
// so tests can exercise alternative transition tables.
func NewService(repo Repository, validator *workflow.Validator) *Service {
	return &Service{repo: repo, validator: validator, now: time.Now}
}

// SetClock overrides the stamping clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// TransitionRequest carries the ancillary data some transitions require.
type TransitionRequest struct {
	Status          workflow.Status `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	DoctorID        *uuid.UUID      `json:"doctor_id,omitempty"`
}

// CreateConsultation registers a new intake submission in its initial status.
func (s *Service) CreateConsultation(ctx context.Context, c *Consultation) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	c.Status = workflow.ConsultPendingAssessment
	return s.repo.Create(ctx, c)
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Transition moves a consultation to a new status. Legality is checked
// against the freshly fetched record, then side effects (required fields,
// stage timestamps) are applied, then the write is persisted conditionally on
// the status the transition was validated against. A concurrent transition
// surfaces as ErrStatusConflict and the caller retries from a fresh read.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := s.validator.Validate(from, req.Status); err != nil {
		return nil, err
	}
	if err := s.applySideEffects(c, req); err != nil {
		return nil, err
	}
	c.Status = req.Status
	if err := s.repo.UpdateStatus(ctx, c, from); err != nil {
		return nil, err
	}
	return c, nil
}

// applySideEffects validates ancillary data and stamps stage timestamps.
// Kept separate from transition legality so the validator stays pure.
func (s *Service) applySideEffects(c *Consultation, req TransitionRequest) error {
	now := s.now()
	switch req.Status {
	case workflow.ConsultAIReviewing:
		c.AIReviewStartedAt = &now
	case workflow.ConsultAIReviewed:
		c.AIReviewedAt = &now
	case workflow.ConsultDoctorReviewing:
		if req.DoctorID != nil {
			c.DoctorID = req.DoctorID
		}
		if c.DoctorAssignedAt == nil {
			c.DoctorAssignedAt = &now
		}
	case workflow.ConsultVideoScheduled:
		c.VideoScheduledAt = &now
	case workflow.ConsultRejected:
		if req.RejectionReason == nil || *req.RejectionReason == "" {
			return &workflow.MissingFieldError{Status: req.Status, Field: "rejection_reason"}
		}
		c.RejectionReason = req.RejectionReason
		c.CompletedAt = &now
	case workflow.ConsultApproved, workflow.ConsultClosed, workflow.ConsultCancelled:
		c.CompletedAt = &now
	}
	return nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*Consultation, int, error) {
	if !s.validator.Known(status) {
		return nil, 0, &workflow.UnknownStatusError{Workflow: s.validator.Workflow(), Status: status}
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// ListActive returns every in-flight consultation, for escalation scans.
func (s *Service) ListActive(ctx context.Context) ([]*Consultation, error) {
	return s.repo.ListActive(ctx)
}
