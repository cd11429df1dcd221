// Package obs has the small publish/subscribe and teardown helpers the
// performance engine reports through.
package obs

import "sync"

// Topic fans a value out to every subscriber, in subscription order
type Topic[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Sub registers fn and returns a func that removes it. Calling the returned
// func more than once is harmless.
func (t *Topic[T]) Sub(fn func(T)) (unsub func()) {
	t.mu.Lock()
	id := t.next
	t.next++
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subs {
				if s.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit calls every subscriber with v. Subscribers may unsubscribe while
// being called.
func (t *Topic[T]) Emit(v T) {
	t.mu.Lock()
	subs := make([]subscriber[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Signal is a Topic without payload: "something changed, re-read state"
type Signal struct {
	topic Topic[struct{}]
}

func (s *Signal) Sub(fn func()) (unsub func()) {
	return s.topic.Sub(func(struct{}) { fn() })
}

func (s *Signal) Emit() {
	s.topic.Emit(struct{}{})
}

func (s *Signal) Len() int {
	return s.topic.Len()
}
