package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/workflow"
)

// ErrStatusConflict is returned by UpdateStatus when the row's status no
// longer matches the status the transition was validated against. The caller
// must re-fetch and re-validate rather than retry blindly.
var ErrStatusConflict = errors.New("consultation status changed concurrently")

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	// UpdateStatus persists a validated transition. The write is conditional
	// on the row still being in from; zero rows affected yields
	// ErrStatusConflict.
	UpdateStatus(ctx context.Context, c *Consultation, from workflow.Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*Consultation, int, error)
	// ListActive returns every consultation not in a terminal status.
	ListActive(ctx context.Context) ([]*Consultation, error)
}
