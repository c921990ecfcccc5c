package laborder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/workflow"
)

// ErrStatusConflict is returned by UpdateStatus when the row's status no
// longer matches the status the transition was validated against.
var ErrStatusConflict = errors.New("lab order status changed concurrently")

type Repository interface {
	Create(ctx context.Context, o *LabOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error)
	// UpdateStatus persists a validated transition, conditional on the row
	// still being in from. Zero rows affected yields ErrStatusConflict.
	UpdateStatus(ctx context.Context, o *LabOrder, from workflow.Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error)
	ListByStatus(ctx context.Context, status workflow.Status, limit, offset int) ([]*LabOrder, int, error)
	// ListActive returns every order not in a terminal status.
	ListActive(ctx context.Context) ([]*LabOrder, error)
	// CountStatusOlderThan counts orders sitting in status whose anchor
	// column is older than cutoff. anchorCol must be one of the whitelisted
	// anchor columns.
	CountStatusOlderThan(ctx context.Context, status workflow.Status, anchorCol string, cutoff time.Time) (int, error)
}
