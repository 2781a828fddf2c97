// Package eventbus provides the in-process event bus used between services and the UI.
package eventbus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/dancepractice/internal/domain"
	"github.com/tejashwikalptaru/dancepractice/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus delivers events synchronously, on the publishing goroutine,
// in subscription order. Type-specific handlers run before wildcard handlers.
//
// Thread-safety: This implementation is thread-safe. Handlers are invoked
// without the lock held, so they may publish or subscribe themselves.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	wildcard []subscription
	nextID   uint64
	closed   bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
// A nil logger discards handler panics and debug output.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SyncEventBus{
		logger: logger.With(slog.String("component", "eventbus")),
		byType: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers event to every matching subscriber.
// Publishing on a closed bus is a no-op.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.byType[event.Type()])+len(bus.wildcard))
	targets = append(targets, bus.byType[event.Type()]...)
	targets = append(targets, bus.wildcard...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		bus.deliver(sub, event)
	}
}

// deliver calls one handler, recovering from a panic so the remaining
// subscribers still see the event.
func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(string(eventType), handler, func(sub subscription) {
		bus.byType[eventType] = append(bus.byType[eventType], sub)
	})
}

// SubscribeAll registers a handler that receives every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("all", handler, func(sub subscription) {
		bus.wildcard = append(bus.wildcard, sub)
	})
}

func (bus *SyncEventBus) add(prefix string, handler domain.EventHandler, insert func(subscription)) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	bus.nextID++
	sub := subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID)),
		handler: handler,
	}
	insert(sub)
	return sub.id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
// The relative order of the remaining subscribers is kept.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	match := func(sub subscription) bool { return sub.id == id }
	for eventType, subs := range bus.byType {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			bus.byType[eventType] = slices.Delete(subs, i, i+1)
			return
		}
	}
	bus.wildcard = slices.DeleteFunc(bus.wildcard, match)
}

// HasSubscribers reports whether an event of eventType would reach anyone.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.byType[eventType]) > 0 || len(bus.wildcard) > 0
}

// Close drops all subscriptions. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.wildcard = nil
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	n := len(bus.wildcard)
	for _, subs := range bus.byType {
		n += len(subs)
	}
	return n
}

// On subscribes a handler that receives events already asserted to T.
// Events of eventType that are not a T are skipped.
func On[T domain.Event](bus ports.EventBus, eventType domain.EventType, handler func(T)) domain.SubscriptionID {
	return bus.Subscribe(eventType, func(event domain.Event) {
		if e, ok := event.(T); ok {
			handler(e)
		}
	})
}

var _ ports.EventBus = (*SyncEventBus)(nil)
