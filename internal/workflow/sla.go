package workflow

import "time"

// Compliance classifies an entity against its SLA deadline.
type Compliance string

const (
	OnTime      Compliance = "ON_TIME"
	Approaching Compliance = "APPROACHING"
	Breached    Compliance = "BREACHED"
)

// SLAInfo is the derived, time-dependent classification of one entity. It is
// recomputed on every read and never persisted.
type SLAInfo struct {
	Status       Compliance `json:"status"`
	Reason       *string    `json:"reason"`
	HoursOverdue *int64     `json:"hours_overdue"`
	DeadlineAt   *time.Time `json:"deadline_at"`
}

// Rule is one SLA deadline: the status it applies to, the stage timestamp the
// clock runs from, and the approaching/breach thresholds with their reason
// strings. Approaching is an absolute threshold, not a fraction of breach.
type Rule struct {
	Status            Status
	Anchor            string
	Approaching       time.Duration
	Breach            time.Duration
	ApproachingReason string
	BreachReason      string
}

// LabOrderRules returns the SLA rule table for the lab order workflow. A
// fresh slice is returned on every call so callers can override per test.
func LabOrderRules() []Rule {
	return []Rule{
		{
			Status:            LabOrdered,
			Anchor:            AnchorOrderedAt,
			Approaching:       7 * 24 * time.Hour,
			Breach:            14 * 24 * time.Hour,
			ApproachingReason: "Patient booking overdue (7+ days)",
			BreachReason:      "Patient has not booked slot (14+ days)",
		},
		{
			Status:            LabSlotBooked,
			Anchor:            AnchorSlotBookedAt,
			Approaching:       1 * time.Hour,
			Breach:            2 * time.Hour,
			ApproachingReason: "Phlebotomist assignment due soon",
			BreachReason:      "Phlebotomist not assigned (2+ hours)",
		},
		{
			Status:            LabDeliveredToLab,
			Anchor:            AnchorDeliveredToLabAt,
			Approaching:       2 * time.Hour,
			Breach:            4 * time.Hour,
			ApproachingReason: "Lab receipt confirmation due soon",
			BreachReason:      "Lab receipt not confirmed (4+ hours)",
		},
		{
			Status:            LabSampleReceived,
			Anchor:            AnchorSampleReceivedAt,
			Approaching:       48 * time.Hour,
			Breach:            72 * time.Hour,
			ApproachingReason: "Lab results approaching deadline",
			BreachReason:      "Lab results overdue (72+ hours)",
		},
		{
			Status:            LabResultsUploaded,
			Anchor:            AnchorResultsUploadedAt,
			Approaching:       24 * time.Hour,
			Breach:            48 * time.Hour,
			ApproachingReason: "Doctor review due soon",
			BreachReason:      "Doctor review overdue (48+ hours)",
		},
	}
}

// Evaluator classifies entities against a rule table. The clock is
// injectable; production wiring uses time.Now.
type Evaluator struct {
	validator *Validator
	rules     map[Status]Rule
	now       func() time.Time
}

// NewEvaluator builds an Evaluator. The validator supplies the workflow's
// status universe so that statuses outside it fail loudly instead of
// defaulting to on-time. A nil now falls back to time.Now.
func NewEvaluator(v *Validator, rules []Rule, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	byStatus := make(map[Status]Rule, len(rules))
	for _, r := range rules {
		byStatus[r.Status] = r
	}
	return &Evaluator{validator: v, rules: byStatus, now: now}
}

// NewLabOrderEvaluator returns an Evaluator over the standard lab order rule
// table.
func NewLabOrderEvaluator(now func() time.Time) *Evaluator {
	return NewEvaluator(NewLabOrderValidator(), LabOrderRules(), now)
}

// NewConsultationEvaluator returns an Evaluator for consultations. No rules
// are registered, so every known status evaluates ON_TIME; the evaluator
// still rejects statuses outside the consultation universe.
func NewConsultationEvaluator(now func() time.Time) *Evaluator {
	return NewEvaluator(NewConsultationValidator(), nil, now)
}

// Rules returns the evaluator's rule table keyed by status.
func (e *Evaluator) Rules() map[Status]Rule {
	out := make(map[Status]Rule, len(e.rules))
	for s, r := range e.rules {
		out[s] = r
	}
	return out
}

// Evaluate classifies the entity at the current clock reading. The clock is
// sampled exactly once per call.
func (e *Evaluator) Evaluate(entity Evaluable) (SLAInfo, error) {
	return e.EvaluateAt(entity, e.now())
}

// EvaluateAt classifies the entity as of the given instant. Callers
// evaluating a population use a single instant for every entity so that one
// response never mixes clock readings.
//
// A status with no rule, or a rule whose anchor is unset, is ON_TIME with all
// secondary fields nil: the clock has not started, which is different from
// the deadline being met.
func (e *Evaluator) EvaluateAt(entity Evaluable, at time.Time) (SLAInfo, error) {
	status := entity.WorkflowStatus()
	if !e.validator.Known(status) {
		return SLAInfo{}, &UnknownStatusError{Workflow: e.validator.Workflow(), Status: status}
	}

	rule, ok := e.rules[status]
	if !ok {
		return SLAInfo{Status: OnTime}, nil
	}
	anchor := entity.AnchorTime(rule.Anchor)
	if anchor == nil {
		return SLAInfo{Status: OnTime}, nil
	}

	elapsed := at.Sub(*anchor)
	deadline := anchor.Add(rule.Breach)

	switch {
	case elapsed >= rule.Breach:
		// Integer division truncates: a breach of exactly the threshold
		// reports 0 hours overdue.
		hours := int64((elapsed - rule.Breach) / time.Hour)
		reason := rule.BreachReason
		return SLAInfo{Status: Breached, Reason: &reason, HoursOverdue: &hours, DeadlineAt: &deadline}, nil
	case elapsed >= rule.Approaching:
		// The deadline shown while approaching is still the breach
		// deadline, so the UI can render a single countdown.
		reason := rule.ApproachingReason
		return SLAInfo{Status: Approaching, Reason: &reason, DeadlineAt: &deadline}, nil
	default:
		return SLAInfo{Status: OnTime}, nil
	}
}
