package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caresched/caresched/internal/platform/clock"
	"github.com/caresched/caresched/internal/platform/directory"
	"github.com/caresched/caresched/internal/platform/lock"
	"github.com/caresched/caresched/internal/platform/meeting"
	"github.com/caresched/caresched/internal/platform/notification"
	"github.com/caresched/caresched/pkg/timerange"
)

// SlotBinder claims and frees bookable slots on behalf of appointments.
// Satisfied by the slot service.
type SlotBinder interface {
	Book(ctx context.Context, id, appointmentID uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
}

// AvailabilityBinder flips availability windows between booked and available.
// Satisfied by the availability service.
type AvailabilityBinder interface {
	MarkBooked(ctx context.Context, id uuid.UUID) error
	MarkAvailable(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	tx       TxRunner
	locker   lock.ProviderLocker
	slots    SlotBinder
	windows  AvailabilityBinder
	dir      directory.Directory
	notifier notification.Notifier
	meetings meeting.Provisioner
	clk      clock.Clock
	log      zerolog.Logger
}

func NewService(repo Repository, tx TxRunner, locker lock.ProviderLocker,
	slots SlotBinder, windows AvailabilityBinder, dir directory.Directory,
	notifier notification.Notifier, meetings meeting.Provisioner,
	clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		locker:   locker,
		slots:    slots,
		windows:  windows,
		dir:      dir,
		notifier: notifier,
		meetings: meetings,
		clk:      clk,
		log:      log,
	}
}

// Create books a new appointment. The conflict check and the insert run under
// a per-provider lock and a single transaction, so two requests for the same
// provider window cannot both succeed.
func (s *Service) Create(ctx context.Context, a *Appointment) error {
	return s.book(ctx, a, uuid.Nil)
}

// book inserts a validated appointment under the provider lock. excludeID
// drops one appointment from the conflict check, so a reschedule can take
// over its original's time before the original is retired.
func (s *Service) book(ctx context.Context, a *Appointment, excludeID uuid.UUID) error {
	if err := s.validateNew(ctx, a); err != nil {
		return err
	}

	err := s.locker.WithProviderLock(ctx, a.ProviderID, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.LockProvider(ctx, a.ProviderID); err != nil {
				return fmt.Errorf("lock provider: %w", err)
			}
			conflicts, err := s.repo.FindConflicts(ctx, a.ProviderID, a.ScheduledStart, a.End(), excludeID)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return newConflictError(conflicts[0])
			}
			if err := s.repo.Create(ctx, a); err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}
			if a.SlotID != nil {
				if err := s.slots.Book(ctx, *a.SlotID, a.ID); err != nil {
					return fmt.Errorf("bind slot: %w", err)
				}
			}
			if a.AvailabilityID != nil {
				if err := s.windows.MarkBooked(ctx, *a.AvailabilityID); err != nil {
					return fmt.Errorf("bind availability: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, a.ID, notification.EventBooked)
	s.provisionMeeting(ctx, a)
	return nil
}

func (s *Service) validateNew(ctx context.Context, a *Appointment) error {
	if a.DurationMinutes <= 0 {
		return fmt.Errorf("duration %d minutes: %w", a.DurationMinutes, timerange.ErrInvalidRange)
	}
	if a.ScheduledStart.IsZero() {
		return fmt.Errorf("scheduled_start is required: %w", timerange.ErrInvalidRange)
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if a.Status != StatusScheduled {
		return fmt.Errorf("new appointments start as scheduled: %w", ErrInvalidTransition)
	}
	if a.Priority == "" {
		a.Priority = PriorityNormal
	}
	if !validPriority(a.Priority) {
		return fmt.Errorf("invalid priority %q: %w", a.Priority, timerange.ErrInvalidRange)
	}
	if a.ScheduledTime == "" {
		a.ScheduledTime = a.ScheduledStart.Format("15:04")
	}
	ok, err := s.dir.PatientExists(ctx, a.PatientID)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return directory.ErrPatientNotFound
	}
	ok, err = s.dir.ProviderExists(ctx, a.ProviderID)
	if err != nil {
		return fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return directory.ErrProviderNotFound
	}
	return nil
}

// provisionMeeting enriches the appointment with video links. Booking never
// fails over this.
func (s *Service) provisionMeeting(ctx context.Context, a *Appointment) {
	if s.meetings == nil {
		return
	}
	links, err := s.meetings.Provision(ctx, a.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("meeting provisioning failed")
		return
	}
	a.MeetingJoinURL = &links.JoinURL
	a.MeetingHostURL = &links.HostURL
	if err := s.repo.Update(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("persisting meeting links failed")
	}
}

// Update edits an appointment. Moving or resizing it re-runs the conflict
// check, excluding the appointment itself, under the same locking discipline
// as Create.
func (s *Service) Update(ctx context.Context, a *Appointment) error {
	existing, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if a.ScheduledStart.IsZero() {
		a.ScheduledStart = existing.ScheduledStart
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = existing.DurationMinutes
	}
	if a.DurationMinutes <= 0 {
		return fmt.Errorf("duration %d minutes: %w", a.DurationMinutes, timerange.ErrInvalidRange)
	}
	if a.Priority == "" {
		a.Priority = existing.Priority
	}
	if !validPriority(a.Priority) {
		return fmt.Errorf("invalid priority %q: %w", a.Priority, timerange.ErrInvalidRange)
	}
	if a.ScheduledTime == "" {
		a.ScheduledTime = a.ScheduledStart.Format("15:04")
	}
	a.PatientID = existing.PatientID
	a.ProviderID = existing.ProviderID
	a.Status = existing.Status
	if a.SlotID == nil {
		a.SlotID = existing.SlotID
	}
	if a.AvailabilityID == nil {
		a.AvailabilityID = existing.AvailabilityID
	}

	moved := !a.ScheduledStart.Equal(existing.ScheduledStart) || a.DurationMinutes != existing.DurationMinutes
	if !moved {
		return s.repo.Update(ctx, a)
	}

	return s.locker.WithProviderLock(ctx, a.ProviderID, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.LockProvider(ctx, a.ProviderID); err != nil {
				return fmt.Errorf("lock provider: %w", err)
			}
			conflicts, err := s.repo.FindConflicts(ctx, a.ProviderID, a.ScheduledStart, a.End(), a.ID)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return newConflictError(conflicts[0])
			}
			return s.repo.Update(ctx, a)
		})
	})
}

// SetStatus drives the appointment lifecycle. The repository compare-and-set
// guarantees a transition applies at most once even under concurrent calls.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, to Status, reason *string) error {
	if !validStatus(to) {
		return fmt.Errorf("unknown status %q: %w", to, ErrInvalidTransition)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%s -> %s: %w", a.Status, to, ErrInvalidTransition)
	}
	if err := s.repo.UpdateStatus(ctx, id, a.Status, to); err != nil {
		return err
	}

	if to == StatusCancelled {
		a.CancellationReason = reason
		a.Status = StatusCancelled
		if err := s.repo.Update(ctx, a); err != nil {
			s.log.Warn().Err(err).Str("appointment_id", id.String()).Msg("recording cancellation reason failed")
		}
		s.releaseTime(ctx, a)
	}

	s.notifier.Notify(ctx, id, statusEvent(to))
	return nil
}

// Cancel is the cancellation path of SetStatus.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string) error {
	return s.SetStatus(ctx, id, StatusCancelled, reason)
}

// releaseTime gives the cancelled appointment's slot and availability window
// back to the bookable pool.
func (s *Service) releaseTime(ctx context.Context, a *Appointment) {
	if a.SlotID != nil {
		if err := s.slots.Release(ctx, *a.SlotID); err != nil {
			s.log.Warn().Err(err).Str("slot_id", a.SlotID.String()).Msg("releasing slot failed")
		}
	}
	if a.AvailabilityID != nil {
		if err := s.windows.MarkAvailable(ctx, *a.AvailabilityID); err != nil {
			s.log.Warn().Err(err).Str("availability_id", a.AvailabilityID.String()).Msg("re-opening availability failed")
		}
	}
}

func statusEvent(s Status) notification.Event {
	switch s {
	case StatusConfirmed:
		return notification.EventConfirmed
	case StatusCompleted:
		return notification.EventCompleted
	case StatusCancelled:
		return notification.EventCancelled
	case StatusNoShow:
		return notification.EventNoShow
	case StatusRescheduled:
		return notification.EventRescheduled
	}
	return notification.EventBooked
}

// Reschedule books a replacement appointment and retires the old one. The
// replacement carries a parent reference back to the original.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, replacement *Appointment) error {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(old.Status, StatusRescheduled) {
		return fmt.Errorf("%s -> %s: %w", old.Status, StatusRescheduled, ErrInvalidTransition)
	}
	replacement.PatientID = old.PatientID
	if replacement.ProviderID == uuid.Nil {
		replacement.ProviderID = old.ProviderID
	}
	parent := old.ID
	replacement.ParentAppointmentID = &parent

	// Exclude the original from the conflict check: its time is being handed
	// over to the replacement.
	if err := s.book(ctx, replacement, old.ID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, old.ID, old.Status, StatusRescheduled); err != nil {
		return err
	}
	s.releaseTime(ctx, old)
	s.notifier.Notify(ctx, old.ID, notification.EventRescheduled)
	return nil
}

// Remove hard-deletes an appointment.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.decorate(ctx, []*Appointment{a})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *Service) FindByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Detail, int, error) {
	items, total, err := s.repo.ListByProvider(ctx, providerID, limit, offset)
	return s.decorated(ctx, items, total, err)
}

func (s *Service) FindByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Detail, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	return s.decorated(ctx, items, total, err)
}

func (s *Service) FindByStatus(ctx context.Context, status Status, limit, offset int) ([]*Detail, int, error) {
	if !validStatus(status) {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, ErrInvalidTransition)
	}
	items, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	return s.decorated(ctx, items, total, err)
}

func (s *Service) FindByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Detail, int, error) {
	if _, err := timerange.New(from, to); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repo.ListByDateRange(ctx, from, to, limit, offset)
	return s.decorated(ctx, items, total, err)
}

// FindToday returns appointments whose start falls inside the clock's
// current local day.
func (s *Service) FindToday(ctx context.Context, limit, offset int) ([]*Detail, int, error) {
	start, end := clock.DayWindow(s.clk.Now())
	items, total, err := s.repo.ListByDateRange(ctx, start, end, limit, offset)
	return s.decorated(ctx, items, total, err)
}

// FindUpcoming returns still-active appointments in the next seven days.
func (s *Service) FindUpcoming(ctx context.Context, limit, offset int) ([]*Detail, int, error) {
	now := s.clk.Now()
	items, total, err := s.repo.ListActiveInWindow(ctx, now, now.Add(7*24*time.Hour), limit, offset)
	return s.decorated(ctx, items, total, err)
}

func (s *Service) decorated(ctx context.Context, items []*Appointment, total int, err error) ([]*Detail, int, error) {
	if err != nil {
		return nil, 0, err
	}
	details, err := s.decorate(ctx, items)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// decorate joins each appointment with minimized provider and patient
// summaries. Repeated participants are fetched once.
func (s *Service) decorate(ctx context.Context, items []*Appointment) ([]*Detail, error) {
	providers := make(map[uuid.UUID]*directory.ProviderSummary)
	patients := make(map[uuid.UUID]*directory.PatientSummary)
	details := make([]*Detail, 0, len(items))
	for _, a := range items {
		d := &Detail{Appointment: *a}
		p, ok := providers[a.ProviderID]
		if !ok {
			var err error
			p, err = s.dir.GetProviderSummary(ctx, a.ProviderID)
			if err != nil {
				return nil, fmt.Errorf("provider summary: %w", err)
			}
			providers[a.ProviderID] = p
		}
		d.Provider = p
		pt, ok := patients[a.PatientID]
		if !ok {
			var err error
			pt, err = s.dir.GetPatientSummary(ctx, a.PatientID)
			if err != nil {
				return nil, fmt.Errorf("patient summary: %w", err)
			}
			patients[a.PatientID] = pt
		}
		d.Patient = pt
		details = append(details, d)
	}
	return details, nil
}
