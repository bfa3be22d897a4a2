package lock

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLocalLocker_SerializesSameProvider(t *testing.T) {
	locker := NewLocalLocker()
	providerID := uuid.New()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithProviderLock(context.Background(), providerID, func(context.Context) error {
				// Unsynchronized read-modify-write; the lock is the only
				// thing keeping this correct.
				c := counter
				counter = c + 1
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("expected %d increments, got %d", workers, counter)
	}
}

func TestLocalLocker_PropagatesError(t *testing.T) {
	locker := NewLocalLocker()
	want := context.DeadlineExceeded

	err := locker.WithProviderLock(context.Background(), uuid.New(), func(context.Context) error {
		return want
	})
	if err != want {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestLocalLocker_IndependentProviders(t *testing.T) {
	locker := NewLocalLocker()
	a, b := uuid.New(), uuid.New()

	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = locker.WithProviderLock(context.Background(), a, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	// Provider b must not wait on provider a's lock.
	done := make(chan struct{})
	go func() {
		_ = locker.WithProviderLock(context.Background(), b, func(context.Context) error {
			return nil
		})
		close(done)
	}()

	<-done
	close(release)
}
