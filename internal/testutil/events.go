package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// EventRecorder collects every event published on a bus.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
	notify chan struct{}
}

// RecordEvents subscribes a recorder to all events on bus for the duration of the test.
func RecordEvents(t *testing.T, bus ports.EventBus) *EventRecorder {
	t.Helper()
	r := &EventRecorder{notify: make(chan struct{}, 1)}
	id := bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		select {
		case r.notify <- struct{}{}:
		default:
		}
	})
	t.Cleanup(func() { bus.Unsubscribe(id) })
	return r
}

// Of returns the recorded events of the given type in publish order.
func (r *EventRecorder) Of(eventType domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given type were recorded.
func (r *EventRecorder) Count(eventType domain.EventType) int {
	return len(r.Of(eventType))
}

// Reset forgets everything recorded so far.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// WaitFor blocks until at least n events of eventType have been recorded,
// failing the test after timeout.
func (r *EventRecorder) WaitFor(t *testing.T, eventType domain.EventType, n int, timeout time.Duration) []domain.Event {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if got := r.Of(eventType); len(got) >= n {
			return got
		}
		select {
		case <-r.notify:
		case <-time.After(10 * time.Millisecond):
		case <-deadline.C:
			t.Fatalf("timed out waiting for %d %s events, got %d", n, eventType, r.Count(eventType))
			return nil
		}
	}
}
