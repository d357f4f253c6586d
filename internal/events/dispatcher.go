package events

import (
	"context"
	"sync"
)

// Event is an in-process notification of a domain state change.
type Event interface {
	EventType() string
}

// Handler consumes a single event. Handlers own their error handling;
// a failing handler must not affect the state change that produced the event.
type Handler func(ctx context.Context, event Event)

// Dispatcher fans an event out to registered handlers.
type Dispatcher interface {
	Register(eventType string, handler Handler)
	Dispatch(ctx context.Context, event Event)
}

// Bus is a synchronous Dispatcher. Handlers run in registration order
// within the caller's goroutine, so callers observe consistent state
// once Dispatch returns.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Register(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *Bus) Dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}

type nopDispatcher struct{}

func (nopDispatcher) Register(string, Handler) {}

func (nopDispatcher) Dispatch(context.Context, Event) {}

// Nop returns a dispatcher that drops every event. Inject it in tests
// that exercise state changes without their side effects.
func Nop() Dispatcher {
	return nopDispatcher{}
}
