package workflow

import "fmt"

// TransitionError reports a proposed status that is not reachable from the
// current status. It is always recoverable: the caller rejects the mutation
// and surfaces the message.
type TransitionError struct {
	Workflow string
	From     Status
	To       Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Workflow, e.From, e.To)
}

// MissingFieldError reports a transition that is legal by the adjacency table
// but lacks mandatory ancillary data (e.g. rejecting without a reason).
type MissingFieldError struct {
	Status Status
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("transition to %s requires %s", e.Status, e.Field)
}

// UnknownStatusError reports a status value absent from the workflow's status
// universe. This is a configuration error, not a user error: it must surface
// loudly rather than silently evaluating as on-time, which would hide real
// SLA violations for misconfigured statuses.
type UnknownStatusError struct {
	Workflow string
	Status   Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown %s status %q", e.Workflow, e.Status)
}
