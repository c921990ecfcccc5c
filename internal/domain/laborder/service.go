package laborder

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
	eval      *workflow.Evaluator
	now       func() time.Time
}

// NewService wires the lab order orchestrator. The evaluator shares the
// validator's status universe so classification and transition legality never
// disagree about which statuses exist.
func NewService(repo Repository, validator *workflow.Validator) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		eval:      workflow.NewEvaluator(validator, workflow.LabOrderRules(), nil),
		now:       time.Now,
	}
}

// SetClock overrides the stamping and evaluation clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// TransitionRequest carries the ancillary data some transitions require.
type TransitionRequest struct {
	Status           workflow.Status `json:"status"`
	PhlebotomistName *string         `json:"phlebotomist_name,omitempty"`
}

// stageOrder is the forward fulfilment chain, used only by AdminRevert to
// decide which stage timestamps sit downstream of a revert target.
var stageOrder = []workflow.Status{
	workflow.LabOrdered,
	workflow.LabSlotBooked,
	workflow.LabPhlebotomistAssigned,
	workflow.LabSampleCollected,
	workflow.LabDeliveredToLab,
	workflow.LabSampleReceived,
	workflow.LabResultsUploaded,
	workflow.LabResultsReviewed,
}

// CreateOrder places a new lab order. The ordered_at anchor is stamped here:
// the patient's booking SLA clock starts the moment the order exists.
func (s *Service) CreateOrder(ctx context.Context, o *LabOrder) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if o.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	o.Status = workflow.LabOrdered
	o.OrderedAt = s.now()
	if err := s.repo.Create(ctx, o); err != nil {
		return err
	}
	return s.attachSLA(ctx, o)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachSLA(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Transition moves an order forward (or cancels it). Legality comes from the
// transition table; this layer stamps the stage timestamp that becomes the
// next stage's SLA anchor, and enforces data each stage requires.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*LabOrder, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := s.validator.Validate(from, req.Status); err != nil {
		return nil, err
	}
	if err := s.applySideEffects(o, req); err != nil {
		return nil, err
	}
	o.Status = req.Status
	if err := s.repo.UpdateStatus(ctx, o, from); err != nil {
		return nil, err
	}
	if err := s.attachSLA(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) applySideEffects(o *LabOrder, req TransitionRequest) error {
	now := s.now()
	switch req.Status {
	case workflow.LabSlotBooked:
		o.SlotBookedAt = &now
	case workflow.LabPhlebotomistAssigned:
		if req.PhlebotomistName == nil || *req.PhlebotomistName == "" {
			return &workflow.MissingFieldError{Status: req.Status, Field: "phlebotomist_name"}
		}
		o.PhlebotomistName = req.PhlebotomistName
		o.PhlebotomistAssignedAt = &now
	case workflow.LabSampleCollected:
		o.SampleCollectedAt = &now
	case workflow.LabDeliveredToLab:
		o.DeliveredToLabAt = &now
	case workflow.LabSampleReceived:
		o.SampleReceivedAt = &now
	case workflow.LabResultsUploaded:
		o.ResultsUploadedAt = &now
	case workflow.LabResultsReviewed:
		o.ResultsReviewedAt = &now
	}
	return nil
}

// AdminRevert moves an order backward to an earlier fulfilment stage,
// clearing every stage timestamp downstream of the target so the SLA clocks
// restart honestly. Reverts bypass the forward transition table; they exist
// for operational corrections (wrong scan, mis-click) and are restricted to
// admins at the route layer.
func (s *Service) AdminRevert(ctx context.Context, id uuid.UUID, target workflow.Status) (*LabOrder, error) {
	if !s.validator.Known(target) {
		return nil, &workflow.UnknownStatusError{Workflow: s.validator.Workflow(), Status: target}
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	curIdx := stageIndex(from)
	tgtIdx := stageIndex(target)
	if curIdx < 0 {
		return nil, fmt.Errorf("cannot revert a %s order", from)
	}
	if tgtIdx < 0 || tgtIdx >= curIdx {
		return nil, fmt.Errorf("revert target %s is not an earlier stage than %s", target, from)
	}

	// Clear anchors for every stage past the target. ordered_at survives any
	// revert; the order itself still happened.
	stamps := []**time.Time{
		&o.SlotBookedAt, &o.PhlebotomistAssignedAt, &o.SampleCollectedAt,
		&o.DeliveredToLabAt, &o.SampleReceivedAt, &o.ResultsUploadedAt,
		&o.ResultsReviewedAt,
	}
	for i, stamp := range stamps {
		if i+1 > tgtIdx {
			*stamp = nil
		}
	}
	if tgtIdx < stageIndex(workflow.LabPhlebotomistAssigned) {
		o.PhlebotomistName = nil
	}

	o.Status = target
	if err := s.repo.UpdateStatus(ctx, o, from); err != nil {
		return nil, err
	}
	if err := s.attachSLA(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func stageIndex(s workflow.Status) int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachSLA(ctx, items...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*LabOrder, int, error) {
	if !s.validator.Known(status) {
		return nil, 0, &workflow.UnknownStatusError{Workflow: s.validator.Workflow(), Status: status}
	}
	items, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachSLA(ctx, items...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListActive returns every in-flight order with SLA attached, for escalation
// scans.
func (s *Service) ListActive(ctx context.Context) ([]*LabOrder, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachSLA(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

// attachSLA classifies each order as of one shared instant, so a single
// response never mixes clock readings.
func (s *Service) attachSLA(_ context.Context, orders ...*LabOrder) error {
	at := s.now()
	for _, o := range orders {
		info, err := s.eval.EvaluateAt(o.Snapshot(), at)
		if err != nil {
			return err
		}
		o.SLA = &info
	}
	return nil
}

// BreachCounts reports how many orders currently sit past a breach deadline,
// per rule and in total. Counting is pushed to SQL rather than paging every
// order through the evaluator.
type BreachCounts struct {
	Total    int                     `json:"total"`
	ByStatus map[workflow.Status]int `json:"by_status"`
}

func (s *Service) CountBreaches(ctx context.Context) (*BreachCounts, error) {
	at := s.now()
	counts := &BreachCounts{ByStatus: make(map[workflow.Status]int)}
	for _, rule := range workflow.LabOrderRules() {
		n, err := s.repo.CountStatusOlderThan(ctx, rule.Status, rule.Anchor, at.Add(-rule.Breach))
		if err != nil {
			return nil, err
		}
		counts.ByStatus[rule.Status] = n
		counts.Total += n
	}
	return counts, nil
}
