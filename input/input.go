// Package input delivers key transitions to the performance engine.
package input

import (
	"errors"
	"sync"

	"go-keyrow/keys"
)

// ErrUnsupported is returned by sources that do not work on this platform
var ErrUnsupported = errors.New("input: source not supported on this platform")

// KeyEvent is one physical key transition. Repeat is only meaningful on Down
// and marks an OS auto-repeat.
type KeyEvent struct {
	Code   keys.Code
	Down   bool
	Repeat bool
}

// Source delivers key events to a handler until the returned stop func is
// called. Handlers must not be called after stop returns.
type Source interface {
	Listen(handler func(KeyEvent)) (stop func(), err error)
}

// Relay is a Source fed by the caller. The UI loop owns it and calls
// Dispatch, so handlers run on that loop.
type Relay struct {
	mu       sync.Mutex
	handlers map[int]func(KeyEvent)
	next     int
}

func NewRelay() *Relay {
	return &Relay{handlers: make(map[int]func(KeyEvent))}
}

func (r *Relay) Listen(handler func(KeyEvent)) (func(), error) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.handlers[id] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.handlers, id)
		r.mu.Unlock()
	}, nil
}

// Dispatch hands ev to every listening handler
func (r *Relay) Dispatch(ev KeyEvent) {
	r.mu.Lock()
	hs := make([]func(KeyEvent), 0, len(r.handlers))
	for i := 0; i < r.next; i++ {
		if h, ok := r.handlers[i]; ok {
			hs = append(hs, h)
		}
	}
	r.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// Listening reports whether any handler is registered
func (r *Relay) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers) > 0
}
