package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caresched/caresched/internal/platform/clock"
	"github.com/caresched/caresched/internal/platform/directory"
	"github.com/caresched/caresched/pkg/timerange"
)

type Service struct {
	repo Repository
	dir  directory.Directory
	clk  clock.Clock
}

func NewService(repo Repository, dir directory.Directory, clk clock.Clock) *Service {
	return &Service{repo: repo, dir: dir, clk: clk}
}

// dateOf is the calendar day of t in t's own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Create cuts a new slot for a provider. The provider must exist and the
// slot must not intersect any other slot of the same provider.
func (s *Service) Create(ctx context.Context, sl *Slot) error {
	if _, err := timerange.New(sl.StartTime, sl.EndTime); err != nil {
		return err
	}
	ok, err := s.dir.ProviderExists(ctx, sl.ProviderID)
	if err != nil {
		return fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return directory.ErrProviderNotFound
	}
	overlaps, err := s.repo.FindOverlapping(ctx, sl.ProviderID, sl.StartTime, sl.EndTime, uuid.Nil)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("slot [%s, %s): %w",
			overlaps[0].StartTime.Format(time.RFC3339), overlaps[0].EndTime.Format(time.RFC3339), ErrOverlap)
	}
	if sl.Date.IsZero() {
		sl.Date = dateOf(sl.StartTime)
	}
	sl.IsBooked = false
	sl.IsAvailable = true
	return s.repo.Create(ctx, sl)
}

// Update moves or resizes a slot. A provider change is re-validated against
// the directory; the overlap check excludes the slot itself.
func (s *Service) Update(ctx context.Context, sl *Slot) error {
	existing, err := s.repo.GetByID(ctx, sl.ID)
	if err != nil {
		return err
	}
	if existing.IsBooked {
		return ErrSlotTaken
	}
	if _, err := timerange.New(sl.StartTime, sl.EndTime); err != nil {
		return err
	}
	if sl.ProviderID == uuid.Nil {
		sl.ProviderID = existing.ProviderID
	}
	if sl.ProviderID != existing.ProviderID {
		ok, err := s.dir.ProviderExists(ctx, sl.ProviderID)
		if err != nil {
			return fmt.Errorf("check provider: %w", err)
		}
		if !ok {
			return directory.ErrProviderNotFound
		}
	}
	overlaps, err := s.repo.FindOverlapping(ctx, sl.ProviderID, sl.StartTime, sl.EndTime, sl.ID)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("slot [%s, %s): %w",
			overlaps[0].StartTime.Format(time.RFC3339), overlaps[0].EndTime.Format(time.RFC3339), ErrOverlap)
	}
	if sl.Date.IsZero() {
		sl.Date = dateOf(sl.StartTime)
	}
	sl.IsAvailable = existing.IsAvailable
	return s.repo.Update(ctx, sl)
}

// Book claims the slot for an appointment. Exactly one concurrent caller
// wins; the rest get ErrSlotTaken.
func (s *Service) Book(ctx context.Context, id, appointmentID uuid.UUID) error {
	return s.repo.Book(ctx, id, appointmentID)
}

// Release frees a previously booked slot.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	return s.repo.Release(ctx, id)
}

// Remove deletes a slot. Booked slots must be released first.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sl.IsBooked {
		return ErrSlotTaken
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Slot, int, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

// ListAvailableForProvider returns free slots starting at or after now.
func (s *Service) ListAvailableForProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Slot, int, error) {
	return s.repo.ListAvailableByProvider(ctx, providerID, s.clk.Now(), limit, offset)
}
