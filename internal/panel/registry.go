package panel

import (
	"log/slog"
	"sync"
)

// Panel bundles the two per-session stores handed to view fragments.
type Panel struct {
	Data *DataStore
	UI   *UIStore
}

// Reset restores the panel's presentation state for a fresh page mount.
// The data cache is kept; views refetch explicitly.
func (p *Panel) Reset() {
	p.UI.Reset()
}

// Registry owns one Panel per session. It replaces module-level store
// singletons: constructed once at startup, torn down with the sessions it
// serves.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	logger  *slog.Logger
	panels  map[string]*Panel // keyed by session token
}

func NewRegistry(backend Backend, logger *slog.Logger) *Registry {
	return &Registry{
		backend: backend,
		logger:  logger,
		panels:  make(map[string]*Panel),
	}
}

// For returns the panel for the session, creating it on first use.
func (r *Registry) For(sessionToken, userID string) *Panel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.panels[sessionToken]; ok {
		return p
	}
	p := &Panel{
		Data: NewDataStore(r.backend, userID, r.logger.With("user_id", userID)),
		UI:   NewUIStore(),
	}
	r.panels[sessionToken] = p
	return p
}

// Drop tears down the panel for a session (logout or expiry).
func (r *Registry) Drop(sessionToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.panels, sessionToken)
}

// DropAll clears every panel. Used at shutdown and for test isolation.
func (r *Registry) DropAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panels = make(map[string]*Panel)
}

// Count returns the number of live panels.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}
