// Package escalation assembles the operations dashboard's attention queue.
// It owns no storage: every request re-reads the live entity populations,
// classifies them at one shared instant, and ranks whatever is at risk.
package escalation

import (
	"context"
	"time"

	"github.com/telecare/telecare/internal/domain/consultation"
	"github.com/telecare/telecare/internal/domain/laborder"
	"github.com/telecare/telecare/internal/workflow"
)

// LabOrderSource is what the dashboard needs from the lab order domain.
type LabOrderSource interface {
	ListActive(ctx context.Context) ([]*laborder.LabOrder, error)
	CountBreaches(ctx context.Context) (*laborder.BreachCounts, error)
}

// ConsultationSource is what the dashboard needs from the consultation
// domain. Consultations carry no deadline rules today, so they never surface
// in the queue, but the dashboard scans them anyway: adding a consultation
// rule must not require touching this package.
type ConsultationSource interface {
	ListActive(ctx context.Context) ([]*consultation.Consultation, error)
}

type Service struct {
	labs     LabOrderSource
	consults ConsultationSource
	labEval  *workflow.Evaluator
	conEval  *workflow.Evaluator
	now      func() time.Time
}

func NewService(labs LabOrderSource, consults ConsultationSource) *Service {
	s := &Service{
		labs:     labs,
		consults: consults,
		now:      time.Now,
	}
	// The evaluators share the service clock so overriding it steers every
	// evaluation path, not just the ones that pass an explicit instant.
	clock := func() time.Time { return s.now() }
	s.labEval = workflow.NewLabOrderEvaluator(clock)
	s.conEval = workflow.NewConsultationEvaluator(clock)
	return s
}

// SetClock overrides the evaluation clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ListEscalations scans both workflows, classifies every active entity as of
// a single instant, and returns the APPROACHING and BREACHED ones ranked by
// severity. ON_TIME entities are dropped, not ranked last.
func (s *Service) ListEscalations(ctx context.Context) ([]workflow.Escalation, error) {
	at := s.now()
	items := []workflow.Escalation{}

	orders, err := s.labs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		info, err := s.labEval.EvaluateAt(o.Snapshot(), at)
		if err != nil {
			return nil, err
		}
		if info.Status == workflow.OnTime {
			continue
		}
		party, contact := responsibleParty(o)
		items = append(items, workflow.Escalation{
			ID:                 o.ID,
			Type:               "lab_order",
			ResourceID:         o.ID,
			SLA:                info,
			ResponsibleParty:   party,
			ResponsibleContact: contact,
			CreatedAt:          o.CreatedAt,
		})
	}

	consults, err := s.consults.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range consults {
		info, err := s.conEval.EvaluateAt(c.Snapshot(), at)
		if err != nil {
			return nil, err
		}
		if info.Status == workflow.OnTime {
			continue
		}
		items = append(items, workflow.Escalation{
			ID:               c.ID,
			Type:             "consultation",
			ResourceID:       c.ID,
			SLA:              info,
			ResponsibleParty: "Doctor",
			CreatedAt:        c.CreatedAt,
		})
	}

	workflow.Rank(items)
	return items, nil
}

// CountBreaches reports the dashboard's breach tally. Only lab orders carry
// deadline rules, so the count is delegated wholesale.
func (s *Service) CountBreaches(ctx context.Context) (*laborder.BreachCounts, error) {
	return s.labs.CountBreaches(ctx)
}

// responsibleParty names who should act on a stuck order, per stage: the
// patient owes the booking, the coordinator owes the assignment, the lab owes
// receipt and results, and the doctor owes the final review.
func responsibleParty(o *laborder.LabOrder) (party, contact string) {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	switch o.Status {
	case workflow.LabOrdered:
		return o.PatientName, deref(o.PatientPhone)
	case workflow.LabSlotBooked:
		return "Coordinator", ""
	case workflow.LabDeliveredToLab, workflow.LabSampleReceived:
		return deref(o.LabPartner), deref(o.LabPartnerPhone)
	case workflow.LabResultsUploaded:
		return "Doctor", ""
	default:
		return "Coordinator", ""
	}
}
