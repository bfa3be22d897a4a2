package availability

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

// Declare registers a new availability window for a provider. The window must
// not intersect any other available window of the same provider.
func (s *Service) Declare(ctx context.Context, a *Availability) error {
	if _, err := timerange.New(a.StartTime, a.EndTime); err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = KindRegular
	}
	if !validKind(a.Kind) {
		return fmt.Errorf("%w: %s", ErrInvalidKind, a.Kind)
	}
	ok, err := s.dir.ProviderExists(ctx, a.ProviderID)
	if err != nil {
		return fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return directory.ErrProviderNotFound
	}
	overlaps, err := s.repo.FindOverlapping(ctx, a.ProviderID, a.StartTime, a.EndTime, uuid.Nil)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("window [%s, %s): %w",
			overlaps[0].StartTime.Format(time.RFC3339), overlaps[0].EndTime.Format(time.RFC3339), ErrOverlap)
	}
	a.Status = StatusAvailable
	return s.repo.Create(ctx, a)
}

// Update changes a window's bounds, kind, or notes. Only available windows
// can be edited; a booked or cancelled window must be released or re-declared
// first. The overlap check runs against every other available window of the
// provider, never against the window itself.
func (s *Service) Update(ctx context.Context, a *Availability) error {
	existing, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.Status != StatusAvailable {
		return fmt.Errorf("window is %s: %w", existing.Status, ErrWindowBooked)
	}
	if _, err := timerange.New(a.StartTime, a.EndTime); err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = existing.Kind
	}
	if !validKind(a.Kind) {
		return fmt.Errorf("%w: %s", ErrInvalidKind, a.Kind)
	}
	overlaps, err := s.repo.FindOverlapping(ctx, existing.ProviderID, a.StartTime, a.EndTime, a.ID)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("window [%s, %s): %w",
			overlaps[0].StartTime.Format(time.RFC3339), overlaps[0].EndTime.Format(time.RFC3339), ErrOverlap)
	}
	a.ProviderID = existing.ProviderID
	a.Status = existing.Status
	return s.repo.Update(ctx, a)
}

// MarkBooked takes the window out of the bookable set.
func (s *Service) MarkBooked(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusBooked)
}

// MarkAvailable re-opens the window for booking.
func (s *Service) MarkAvailable(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusAvailable)
}

// Cancel withdraws the window without deleting its record.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}

// Remove deletes a window. Booked windows must be released first.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusBooked {
		return ErrWindowBooked
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Availability, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Availability, int, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

// ListAvailable returns bookable windows starting at or after now.
func (s *Service) ListAvailable(ctx context.Context, limit, offset int) ([]*Availability, int, error) {
	return s.repo.ListAvailable(ctx, s.clk.Now(), limit, offset)
}

func (s *Service) ListByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error) {
	if _, err := timerange.New(from, to); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByDateRange(ctx, providerID, from, to, limit, offset)
}

func (s *Service) ListAvailableByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error) {
	if _, err := timerange.New(from, to); err != nil {
		return nil, 0, err
	}
	return s.repo.ListAvailableByDateRange(ctx, providerID, from, to, limit, offset)
}
