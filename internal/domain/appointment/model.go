// Package appointment books patient-provider appointments and guards the
// one-appointment-per-provider-at-a-time invariant.
package appointment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/platform/directory"
	"github.com/caresched/caresched/pkg/timerange"
)

var (
	// ErrNotFound is returned when no appointment matches the id.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidTransition is returned for status changes the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

// transitions is the full lifecycle: scheduled -> confirmed -> completed,
// with cancelled, no_show, and rescheduled reachable from any active state.
// Terminal states allow nothing.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func validStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// Priority ranks how urgently the appointment was requested.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

func validPriority(p Priority) bool {
	return p == PriorityNormal || p == PriorityUrgent || p == PriorityEmergency
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	PatientID           uuid.UUID       `db:"patient_id" json:"patient_id"`
	ProviderID          uuid.UUID       `db:"provider_id" json:"provider_id"`
	ScheduledStart      time.Time       `db:"scheduled_start" json:"scheduled_start"`
	ScheduledTime       string          `db:"scheduled_time" json:"scheduled_time"`
	DurationMinutes     int             `db:"duration_minutes" json:"duration_minutes"`
	Reason              *string         `db:"reason" json:"reason,omitempty"`
	Status              Status          `db:"status" json:"status"`
	Priority            Priority        `db:"priority" json:"priority"`
	SlotID              *uuid.UUID      `db:"slot_id" json:"slot_id,omitempty"`
	AvailabilityID      *uuid.UUID      `db:"availability_id" json:"availability_id,omitempty"`
	ParentAppointmentID *uuid.UUID      `db:"parent_appointment_id" json:"parent_appointment_id,omitempty"`
	Diagnosis           *string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription        *string         `db:"prescription" json:"prescription,omitempty"`
	Vitals              json.RawMessage `db:"vitals" json:"vitals,omitempty"`
	CancellationReason  *string         `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	MeetingJoinURL      *string         `db:"meeting_join_url" json:"meeting_join_url,omitempty"`
	MeetingHostURL      *string         `db:"meeting_host_url" json:"meeting_host_url,omitempty"`
	Notes               *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// Window returns the half-open interval the appointment occupies.
func (a *Appointment) Window() (timerange.Range, error) {
	return timerange.FromDuration(a.ScheduledStart, time.Duration(a.DurationMinutes)*time.Minute)
}

// End returns the instant the appointment finishes.
func (a *Appointment) End() time.Time {
	return a.ScheduledStart.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment still occupies its provider's time.
// Cancelled and rescheduled appointments have released theirs.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled && a.Status != StatusRescheduled
}

// Detail is an appointment joined with minimized participant summaries.
// Full provider and patient profiles never leave the directory.
type Detail struct {
	Appointment
	Provider *directory.ProviderSummary `json:"provider,omitempty"`
	Patient  *directory.PatientSummary  `json:"patient,omitempty"`
}

// ConflictError reports the appointment that already occupies the requested
// time.
type ConflictError struct {
	ConflictingID uuid.UUID
	Start         time.Time
	End           time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("provider already booked from %s to %s (appointment %s)",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.ConflictingID)
}

func newConflictError(a *Appointment) *ConflictError {
	return &ConflictError{ConflictingID: a.ID, Start: a.ScheduledStart, End: a.End()}
}
