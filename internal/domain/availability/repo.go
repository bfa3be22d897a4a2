package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Availability) error
	GetByID(ctx context.Context, id uuid.UUID) (*Availability, error)
	Update(ctx context.Context, a *Availability) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindOverlapping returns available windows of the provider that
	// intersect [start, end), excluding excludeID when non-nil.
	FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Availability, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Availability, int, error)
	ListAvailable(ctx context.Context, from time.Time, limit, offset int) ([]*Availability, int, error)
	ListByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error)
	ListAvailableByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error)
}
