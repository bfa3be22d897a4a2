// Package slot manages discrete bookable time slots cut from a provider's
// calendar. A slot is free until an appointment claims it.
package slot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no slot matches the id.
	ErrNotFound = errors.New("slot not found")
	// ErrSlotTaken is returned when booking a slot that is already booked.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrOverlap is returned when a slot would collide with another slot of
	// the same provider.
	ErrOverlap = errors.New("slot overlaps an existing slot")
)

// Slot maps to the slots table.
type Slot struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ProviderID    uuid.UUID  `db:"provider_id" json:"provider_id"`
	Date          time.Time  `db:"date" json:"date"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       time.Time  `db:"end_time" json:"end_time"`
	IsBooked      bool       `db:"is_booked" json:"is_booked"`
	IsAvailable   bool       `db:"is_available" json:"is_available"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Bookable reports whether the slot can currently take an appointment.
func (s *Slot) Bookable() bool {
	return s.IsAvailable && !s.IsBooked
}
