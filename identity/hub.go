package identity

import "sync"

// Hub holds the current session and fans out session-change notifications.
// Both provider implementations embed one so subscription semantics stay
// identical. Callbacks run synchronously under no lock, so a callback may
// re-enter the hub.
type Hub struct {
	mu      sync.RWMutex
	current *Session
	subs    map[int]func(*Session)
	nextID  int
}

// Current returns the stored session, nil when signed out.
func (h *Hub) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Set stores the session (nil clears it) and notifies every subscriber.
func (h *Hub) Set(s *Session) {
	h.mu.Lock()
	h.current = s
	fns := make([]func(*Session), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Subscribe registers fn and returns its unsubscribe function. Unsubscribe
// is idempotent; after it returns fn is never called again.
func (h *Hub) Subscribe(fn func(*Session)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(*Session))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}
