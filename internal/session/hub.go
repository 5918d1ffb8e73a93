package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wolv-invest/platform/internal/identity"
)

// Hub adapts the single-context Manager to the web tier: one Manager per
// web session, with identity events fanned out to the managers tracking
// the affected subject. Concurrent profile fetches for the same subject
// are collapsed through singleflight.
type Hub struct {
	dir    identity.Directory
	logger *slog.Logger
	touch  func(ctx context.Context, subjectID string)
	group  singleflight.Group

	mu       sync.Mutex
	managers map[string]*entry

	// IdleTTL bounds how long a manager outlives its last request before
	// Sweep may evict it. Zero disables eviction.
	idleTTL time.Duration
	// resolveWait bounds how long Attach blocks on an initial resolution.
	resolveWait time.Duration
	now         func() time.Time
}

const defaultResolveWait = 3 * time.Second

type entry struct {
	manager  *Manager
	lastSeen time.Time
}

// HubConfig collects Hub dependencies.
type HubConfig struct {
	Directory      identity.Directory
	Logger         *slog.Logger
	TouchLastLogin func(ctx context.Context, subjectID string)
	IdleTTL        time.Duration
	// ResolveWait overrides how long Attach blocks on an initial
	// resolution before returning with the session still resolving.
	ResolveWait time.Duration
}

// NewHub constructs a Hub.
func NewHub(cfg HubConfig) *Hub {
	wait := cfg.ResolveWait
	if wait <= 0 {
		wait = defaultResolveWait
	}
	return &Hub{
		dir:         cfg.Directory,
		logger:      cfg.Logger,
		touch:       cfg.TouchLastLogin,
		managers:    make(map[string]*entry),
		idleTTL:     cfg.IdleTTL,
		resolveWait: wait,
		now:         time.Now,
	}
}

// fetchProfile deduplicates concurrent fetches of the same subject.
func (h *Hub) fetchProfile(ctx context.Context, subjectID string) (*identity.Profile, error) {
	v, err, _ := h.group.Do(subjectID, func() (any, error) {
		return h.dir.FetchProfile(ctx, subjectID)
	})
	if err != nil {
		return nil, err
	}
	profile, _ := v.(*identity.Profile)
	return profile, nil
}

// Attach returns the Manager for a web session, creating one bound to the
// persisted subject when the session is seen for the first time. The
// resolution runs on a context detached from the request, so the request
// finishing cannot cancel an in-flight profile fetch, and Attach waits
// (bounded) for it to settle so the first request after a restart or
// sweep already sees its principal.
func (h *Hub) Attach(ctx context.Context, sessionID, persistedSubject string) *Manager {
	h.mu.Lock()
	e, ok := h.managers[sessionID]
	if !ok {
		e = &entry{manager: NewManager(Config{
			Directory:      h.dir,
			Logger:         h.logger,
			Subject:        persistedSubject,
			FetchProfile:   h.fetchProfile,
			TouchLastLogin: h.touch,
		})}
		h.managers[sessionID] = e
	}
	e.lastSeen = h.now()
	h.mu.Unlock()

	done := e.manager.Start(context.WithoutCancel(ctx))
	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(h.resolveWait):
	}
	return e.manager
}

// Lookup returns the Manager for a web session without creating one.
func (h *Hub) Lookup(sessionID string) *Manager {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.managers[sessionID]; ok {
		e.lastSeen = h.now()
		return e.manager
	}
	return nil
}

// Detach drops the Manager for a web session.
func (h *Hub) Detach(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.managers, sessionID)
}

// HandleSignedIn routes a sign-in event to every session bound to the
// subject.
func (h *Hub) HandleSignedIn(ctx context.Context, subjectID string) {
	for _, m := range h.managersFor(subjectID) {
		m.SignedIn(ctx, subjectID)
	}
}

// HandleSignedOut routes a sign-out event to every session bound to the
// subject, revoking their principals immediately.
func (h *Hub) HandleSignedOut(subjectID string) {
	for _, m := range h.managersFor(subjectID) {
		m.SignedOut()
	}
}

func (h *Hub) managersFor(subjectID string) []*Manager {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*Manager
	for _, e := range h.managers {
		if e.manager.Subject() == subjectID {
			out = append(out, e.manager)
		}
	}
	return out
}

// Sweep evicts managers idle longer than the configured TTL and returns
// how many were removed.
func (h *Hub) Sweep() int {
	if h.idleTTL <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-h.idleTTL)
	removed := 0
	for id, e := range h.managers {
		if e.lastSeen.Before(cutoff) {
			delete(h.managers, id)
			removed++
		}
	}
	return removed
}

// SetNow overrides the Hub clock. Tests use it to age sessions.
func (h *Hub) SetNow(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// Run subscribes the Hub to the auth-event stream and periodically sweeps
// idle managers. Blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context, events *identity.EventHub) error {
	if h.idleTTL > 0 {
		ticker := time.NewTicker(h.idleTTL / 2)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := h.Sweep(); n > 0 && h.logger != nil {
						h.logger.Debug("swept idle sessions", slog.Int("count", n))
					}
				}
			}
		}()
	}
	return events.Subscribe(ctx, identity.EventHandler{
		OnSignedIn:  func(subject string) { h.HandleSignedIn(ctx, subject) },
		OnSignedOut: h.HandleSignedOut,
	})
}
