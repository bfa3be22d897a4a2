package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// UpdateStatus changes the status only if the row still holds from.
	// Returns ErrInvalidTransition when the compare fails and ErrNotFound
	// when the row is gone.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LockProvider serializes concurrent booking attempts for a provider
	// within the surrounding transaction.
	LockProvider(ctx context.Context, providerID uuid.UUID) error
	// FindConflicts returns non-cancelled appointments of the provider whose
	// windows intersect [start, end), excluding excludeID.
	FindConflicts(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Appointment, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Appointment, int, error)
	ListByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error)
	// ListActiveInWindow is ListByDateRange restricted to non-cancelled
	// appointments; today and upcoming views build on it.
	ListActiveInWindow(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error)
}

// TxRunner runs fn atomically. The pg implementation opens a transaction and
// threads it through the context; tests run fn directly.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
