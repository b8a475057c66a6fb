package gate

import (
	"context"
	"sync"

	"github.com/ecosnap/ecosnap-server/identity"
)

// Watcher mirrors the provider's session into an explicit state the caller
// observes. It checks for an existing session on construction, subscribes to
// provider session-change notifications, and guarantees release on Close.
// Notifications may arrive from any goroutine at any time, including before
// the constructor returns, so all state is mutex guarded.
type Watcher struct {
	mu       sync.Mutex
	state    State
	closed   bool
	unsub    func()
	onChange func(State)
}

// NewWatcher builds a watcher over the provider. onChange, when non-nil,
// fires on every state transition (not on equal-state notifications).
func NewWatcher(ctx context.Context, provider identity.Provider, onChange func(State)) *Watcher {
	w := &Watcher{state: StateUnauthenticated, onChange: onChange}

	// Subscribe first so a session change racing the initial check is not
	// lost; apply tolerates out-of-order duplicates.
	w.unsub = provider.OnSessionChange(func(s *identity.Session) {
		w.apply(s)
	})

	if sess, err := provider.CurrentSession(ctx); err == nil && sess != nil {
		w.apply(sess)
	}

	return w
}

// State returns the last observed authentication state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Close unsubscribes from the provider. It is idempotent, and once it
// returns no further transitions are observed.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsub := w.unsub
	w.unsub = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (w *Watcher) apply(sess *identity.Session) {
	next := StateUnauthenticated
	if sess != nil {
		next = StateAuthenticated
	}

	w.mu.Lock()
	if w.closed || w.state == next {
		w.mu.Unlock()
		return
	}
	w.state = next
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn(next)
	}
}
