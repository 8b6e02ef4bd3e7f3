// Package bus carries the session-invalidated signal from the HTTP layer
// to whoever owns navigation.
package bus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SessionInvalidated is published once per response that invalidated the session.
type SessionInvalidated struct {
	Method string
	Path   string
	Status int
	At     time.Time
}

type Handler func(SessionInvalidated)

type Bus struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
	next     uint64
	log      *slog.Logger
}

func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		handlers: make(map[uint64]Handler),
		log:      log,
	}
}

// Subscribe registers h and returns a function that removes it. The returned
// function is safe to call more than once.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every handler synchronously and returns how many ran
// without panicking. A panicking handler is logged and skipped.
func (b *Bus) Publish(ev SessionInvalidated) int {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, h := range handlers {
		if err := b.deliver(h, ev); err != nil {
			b.log.Error("session handler failed",
				slog.String("path", ev.Path),
				slog.String("error", err.Error()))
			continue
		}
		delivered++
	}

	return delivered
}

func (b *Bus) deliver(h Handler, ev SessionInvalidated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	h(ev)
	return nil
}
