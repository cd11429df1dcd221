package obs

import "sync"

// Scope collects cleanup hooks and runs them once, newest first.
type Scope struct {
	mu        sync.Mutex
	hooks     []func()
	destroyed bool
}

// OnDestroy registers fn. If the scope is already destroyed fn runs now.
func (s *Scope) OnDestroy(fn func()) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		fn()
		return
	}
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Destroy runs the registered hooks. Later calls do nothing.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
