package workflow

// Workflow names used in error messages.
const (
	ConsultationWorkflow = "consultation"
	LabOrderWorkflow     = "lab order"
)

// ConsultationTransitions returns the adjacency table for the consultation
// lifecycle. A fresh map is returned on every call so callers (and tests) can
// modify their copy without affecting anyone else.
//
// VIDEO_SCHEDULED -> DOCTOR_REVIEWING is the one deliberate revert edge: a
// doctor may cancel a scheduled video call and resume chart review. No other
// backward or re-entrant transition is legal.
func ConsultationTransitions() map[Status][]Status {
	return map[Status][]Status{
		ConsultPendingAssessment: {ConsultAIReviewing, ConsultCancelled},
		ConsultAIReviewing:       {ConsultAIReviewed, ConsultCancelled},
		ConsultAIReviewed:        {ConsultDoctorReviewing, ConsultCancelled},
		ConsultDoctorReviewing:   {ConsultVideoScheduled, ConsultApproved, ConsultRejected, ConsultClosed, ConsultCancelled},
		ConsultVideoScheduled:    {ConsultDoctorReviewing, ConsultApproved, ConsultRejected, ConsultClosed, ConsultCancelled},
		ConsultApproved:          {},
		ConsultRejected:          {},
		ConsultClosed:            {},
		ConsultCancelled:         {},
	}
}

// LabOrderTransitions returns the adjacency table for the lab order
// lifecycle: a strict forward chain from booking through results review, with
// cancellation available at every non-terminal stage.
func LabOrderTransitions() map[Status][]Status {
	return map[Status][]Status{
		LabOrdered:              {LabSlotBooked, LabCancelled},
		LabSlotBooked:           {LabPhlebotomistAssigned, LabCancelled},
		LabPhlebotomistAssigned: {LabSampleCollected, LabCancelled},
		LabSampleCollected:      {LabDeliveredToLab, LabCancelled},
		LabDeliveredToLab:       {LabSampleReceived, LabCancelled},
		LabSampleReceived:       {LabResultsUploaded, LabCancelled},
		LabResultsUploaded:      {LabResultsReviewed, LabCancelled},
		LabResultsReviewed:      {},
		LabCancelled:            {},
	}
}

// Validator answers whether a proposed status change is legal for one
// workflow. The adjacency table it is built from is the single source of
// truth for transition legality; no business code special-cases stages.
type Validator struct {
	workflow string
	next     map[Status]map[Status]bool
	known    map[Status]bool
}

// NewValidator builds a Validator from an adjacency table. The table is
// copied; later mutation of the argument does not affect the validator.
func NewValidator(workflow string, table map[Status][]Status) *Validator {
	v := &Validator{
		workflow: workflow,
		next:     make(map[Status]map[Status]bool, len(table)),
		known:    make(map[Status]bool, len(table)),
	}
	for from, tos := range table {
		v.known[from] = true
		set := make(map[Status]bool, len(tos))
		for _, to := range tos {
			v.known[to] = true
			set[to] = true
		}
		v.next[from] = set
	}
	return v
}

// NewConsultationValidator returns a Validator for the consultation workflow.
func NewConsultationValidator() *Validator {
	return NewValidator(ConsultationWorkflow, ConsultationTransitions())
}

// NewLabOrderValidator returns a Validator for the lab order workflow.
func NewLabOrderValidator() *Validator {
	return NewValidator(LabOrderWorkflow, LabOrderTransitions())
}

// Workflow returns the workflow name this validator covers.
func (v *Validator) Workflow() string { return v.workflow }

// Known reports whether s belongs to this workflow's status universe.
func (v *Validator) Known(s Status) bool { return v.known[s] }

// Statuses returns every status in the workflow's universe, in no particular
// order.
func (v *Validator) Statuses() []Status {
	out := make([]Status, 0, len(v.known))
	for s := range v.known {
		out = append(out, s)
	}
	return out
}

// IsTerminal reports whether s has no outgoing transitions. Statuses absent
// from the table are terminal by definition.
func (v *Validator) IsTerminal(s Status) bool { return len(v.next[s]) == 0 }

// CanTransition reports whether current -> proposed is listed in the table.
func (v *Validator) CanTransition(current, proposed Status) bool {
	return v.next[current][proposed]
}

// Validate checks a proposed transition. It returns *UnknownStatusError if
// either status is outside the workflow's universe, *TransitionError if the
// edge is not in the table, and nil for a legal transition. Side effects of
// the transition (required fields, timestamp stamping) are the caller's
// concern, applied only after Validate passes.
func (v *Validator) Validate(current, proposed Status) error {
	if !v.known[current] {
		return &UnknownStatusError{Workflow: v.workflow, Status: current}
	}
	if !v.known[proposed] {
		return &UnknownStatusError{Workflow: v.workflow, Status: proposed}
	}
	if !v.next[current][proposed] {
		return &TransitionError{Workflow: v.workflow, From: current, To: proposed}
	}
	return nil
}
