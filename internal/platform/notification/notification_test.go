package notification

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestLogNotifier_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	n := NewLogNotifier(logger)

	id := uuid.New()
	n.Notify(context.Background(), id, EventBooked)

	out := buf.String()
	if !strings.Contains(out, id.String()) {
		t.Errorf("log output missing appointment id: %s", out)
	}
	if !strings.Contains(out, string(EventBooked)) {
		t.Errorf("log output missing event name: %s", out)
	}
}

func TestRecorder_CapturesInOrder(t *testing.T) {
	r := NewRecorder()
	id := uuid.New()

	r.Notify(context.Background(), id, EventBooked)
	r.Notify(context.Background(), id, EventCancelled)

	events := r.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Event != EventBooked || events[1].Event != EventCancelled {
		t.Errorf("unexpected event order: %+v", events)
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(context.Background(), uuid.New(), EventConfirmed)
		}()
	}
	wg.Wait()

	if got := len(r.Events()); got != 20 {
		t.Errorf("expected 20 events, got %d", got)
	}
}
