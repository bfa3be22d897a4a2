package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	Update(ctx context.Context, s *Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Book flips the slot to booked only if it is currently free, binding it
	// to the appointment. Returns ErrSlotTaken when another booking won.
	Book(ctx context.Context, id, appointmentID uuid.UUID) error
	// Release frees the slot and clears its appointment binding.
	Release(ctx context.Context, id uuid.UUID) error
	FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Slot, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Slot, int, error)
	ListAvailableByProvider(ctx context.Context, providerID uuid.UUID, from time.Time, limit, offset int) ([]*Slot, int, error)
}
