// Package notification delivers appointment lifecycle events to downstream
// consumers. Delivery is fire-and-forget: a failed notification never rolls
// back the scheduling write that triggered it.
package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event names an appointment lifecycle change worth telling someone about.
type Event string

const (
	EventBooked      Event = "appointment.booked"
	EventConfirmed   Event = "appointment.confirmed"
	EventCancelled   Event = "appointment.cancelled"
	EventRescheduled Event = "appointment.rescheduled"
	EventCompleted   Event = "appointment.completed"
	EventNoShow      Event = "appointment.no_show"
)

// Notifier receives appointment events after the scheduling transaction has
// committed.
type Notifier interface {
	Notify(ctx context.Context, appointmentID uuid.UUID, event Event)
}

// LogNotifier writes events to the structured log. It stands in for the
// external reminder/email delivery system.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, appointmentID uuid.UUID, event Event) {
	n.logger.Info().
		Str("appointment_id", appointmentID.String()).
		Str("event", string(event)).
		Msg("appointment notification")
}

// Recorder captures events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	AppointmentID uuid.UUID
	Event         Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, appointmentID uuid.UUID, event Event) {
	r.mu.Lock()
	r.events = append(r.events, RecordedEvent{AppointmentID: appointmentID, Event: event})
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]RecordedEvent, len(r.events))
	copy(cp, r.events)
	return cp
}
