package key

import "sync"

// Handler consumes a key event. It returns true if the event was handled
// and must not propagate further.
type Handler func(Event) bool

// Router dispatches key events through at most one interceptor and then a
// base handler.
//
// The interceptor is a single mutable slot, not a listener list: installing
// a new one replaces the old, so reused sessions never accumulate stale
// handlers. Each install returns a monotonically increasing token, and
// removal requires the matching token, so a late teardown from a
// superseded session is recognized and ignored instead of tearing down its
// successor.
type Router struct {
	mu          sync.Mutex
	seq         uint64
	interceptor Handler
	base        Handler
}

// NewRouter creates a router with no handlers installed.
func NewRouter() *Router {
	return &Router{}
}

// SetBase installs the fallback handler consulted when no interceptor
// claims an event.
func (r *Router) SetBase(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = h
}

// Intercept installs h at the front of dispatch, replacing any previous
// interceptor, and returns the token required to remove it.
func (r *Router) Intercept(h Handler) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.interceptor = h
	return r.seq
}

// Release removes the interceptor installed under token. Stale tokens are
// no-ops.
func (r *Router) Release(token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == r.seq {
		r.interceptor = nil
	}
}

// Dispatch routes an event: interceptor first, then the base handler.
// It returns true if either consumed the event.
func (r *Router) Dispatch(ev Event) bool {
	r.mu.Lock()
	interceptor := r.interceptor
	base := r.base
	r.mu.Unlock()

	if interceptor != nil && interceptor(ev) {
		return true
	}
	if base != nil {
		return base(ev)
	}
	return false
}
