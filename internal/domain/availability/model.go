// Package availability manages provider availability windows, the declared
// stretches of time a care provider is open for booking.
package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caresched/caresched/pkg/timerange"
)

var (
	// ErrNotFound is returned when no availability window matches the id.
	ErrNotFound = errors.New("availability not found")
	// ErrOverlap is returned when a window would collide with another
	// available window of the same provider.
	ErrOverlap = errors.New("availability overlaps an existing window")
	// ErrWindowBooked is returned when editing or removing a window that is
	// not in the available state.
	ErrWindowBooked = errors.New("availability window is booked")
	// ErrInvalidKind is returned for kinds outside regular|emergency.
	ErrInvalidKind = errors.New("invalid availability kind")
)

// Kind classifies an availability window.
type Kind string

const (
	KindRegular   Kind = "regular"
	KindEmergency Kind = "emergency"
)

// Status tracks whether a window is open for booking.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

// Availability maps to the availability table.
type Availability struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	Kind       Kind      `db:"kind" json:"kind"`
	Status     Status    `db:"status" json:"status"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Window returns the half-open interval covered by the availability.
func (a *Availability) Window() (timerange.Range, error) {
	return timerange.New(a.StartTime, a.EndTime)
}

func validKind(k Kind) bool {
	return k == KindRegular || k == KindEmergency
}
