// Package session owns the lifecycle of the authenticated principal: it
// establishes the principal from a persisted credential, applies
// asynchronous auth events, and publishes state snapshots to consumers.
// The Manager is the only writer of session state; everything else reads.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wolv-invest/platform/internal/identity"
)

// State enumerates the session lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateResolving
	StateAuthenticating
	StateAuthenticated
	StatePendingConfirmation
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateResolving:
		return "resolving"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StatePendingConfirmation:
		return "pending_confirmation"
	default:
		return "unknown"
	}
}

// Snapshot is an atomic read of the session state.
type Snapshot struct {
	State     State
	Principal *Principal
}

// RegisterResult reports the outcome of a successful registration.
type RegisterResult struct {
	// PendingConfirmation is set when the credential was created but the
	// backend requires out-of-band confirmation before it can sign in.
	PendingConfirmation bool
	// Warning is a non-fatal problem, e.g. the profile record could not be
	// provisioned yet. The credential is kept either way.
	Warning string
}

// FetchProfileFunc loads the profile for a subject. Used to inject fetch
// deduplication without the Manager knowing about it.
type FetchProfileFunc func(ctx context.Context, subjectID string) (*identity.Profile, error)

// Config collects Manager dependencies.
type Config struct {
	Directory identity.Directory
	Logger    *slog.Logger
	// Subject is the persisted credential recovered at startup, empty when
	// no prior session exists.
	Subject string
	// FetchProfile overrides Directory.FetchProfile when set.
	FetchProfile FetchProfileFunc
	// TouchLastLogin is invoked fire-and-forget after a successful login.
	// Defaults to a best-effort Directory.TouchLastLogin.
	TouchLastLogin func(ctx context.Context, subjectID string)
}

// Manager tracks at most one Principal per client context and applies the
// session state machine. All mutation happens under mu; asynchronous
// completions are discarded when a later transition superseded them.
type Manager struct {
	dir    identity.Directory
	logger *slog.Logger
	fetch  FetchProfileFunc
	touch  func(ctx context.Context, subjectID string)

	mu        sync.Mutex
	state     State
	principal *Principal
	subject   string
	// gen increments on every identity-changing transition. In-flight
	// resolutions capture it at start and apply only if it is unchanged on
	// completion: the last writer for session identity wins.
	gen uint64

	subs   map[int]func(Snapshot)
	nextID int
}

// NewManager constructs a Manager in the Unauthenticated state.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		dir:     cfg.Directory,
		logger:  cfg.Logger,
		fetch:   cfg.FetchProfile,
		touch:   cfg.TouchLastLogin,
		state:   StateUnauthenticated,
		subject: cfg.Subject,
		subs:    make(map[int]func(Snapshot)),
	}
	if m.fetch == nil {
		m.fetch = cfg.Directory.FetchProfile
	}
	if m.touch == nil {
		m.touch = func(ctx context.Context, subjectID string) {
			if err := cfg.Directory.TouchLastLogin(ctx, subjectID); err != nil && m.logger != nil {
				m.logger.Warn("touch last login", slog.Any("error", err))
			}
		}
	}
	return m
}

// Start attempts to recover the session from the persisted credential.
// It is a no-op unless the session is Unauthenticated with a bound
// subject, so repeated calls retry a resolution that failed transiently
// without disturbing an established session. The returned channel closes
// once the resolution settles.
func (m *Manager) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	m.mu.Lock()
	subject := m.subject
	if subject == "" || m.state != StateUnauthenticated {
		m.mu.Unlock()
		close(done)
		return done
	}
	m.state = StateResolving
	m.gen++
	g := m.gen
	m.notifyLocked()
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.resolve(ctx, subject, g)
	}()
	return done
}

// resolve loads the profile for a subject and applies it if no later
// transition happened in the meantime.
func (m *Manager) resolve(ctx context.Context, subject string, g uint64) {
	profile, err := m.fetch(ctx, subject)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != g {
		return // superseded; discard the fetch result
	}
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("session resolve", slog.Any("error", err))
		}
		// Transient backend failure. Keep the subject so the next Start
		// retries; only an authoritative missing or inactive profile
		// unbinds the session.
		m.principal = nil
		m.state = StateUnauthenticated
		m.notifyLocked()
		return
	}
	if profile == nil || !profile.Active {
		m.clearLocked()
		m.notifyLocked()
		return
	}
	m.principal = PrincipalFromProfile(profile)
	m.subject = profile.ID
	m.state = StateAuthenticated
	m.notifyLocked()
}

// Login authenticates an email/password pair. The profile is always
// re-fetched fresh; deactivated accounts are refused with a distinct error
// and the session stays Unauthenticated.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.gen++
	g := m.gen
	m.state = StateAuthenticating
	m.notifyLocked()
	m.mu.Unlock()

	cred, err := m.dir.VerifyCredential(ctx, email, password)
	if err != nil {
		m.fail(g)
		return err
	}
	profile, err := m.fetch(ctx, cred.SubjectID)
	if err != nil {
		m.fail(g)
		return err
	}
	if profile == nil {
		m.fail(g)
		return identity.ErrProfileMissing
	}
	if !profile.Active {
		m.fail(g)
		return identity.ErrAccountDeactivated
	}

	m.touch(ctx, cred.SubjectID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != g {
		return nil // session superseded while the login was in flight
	}
	m.principal = PrincipalFromProfile(profile)
	m.subject = profile.ID
	if cred.Confirmed {
		m.state = StateAuthenticated
	} else {
		m.state = StatePendingConfirmation
	}
	m.notifyLocked()
	return nil
}

// Register creates a credential and its profile. A duplicate email is
// rejected before any backend side effect. Profile-creation failure after
// a successful credential creation is reported as a soft success: the
// credential is kept and the warning surfaced.
func (m *Manager) Register(ctx context.Context, name, email, password string) (RegisterResult, error) {
	exists, err := m.dir.EmailExists(ctx, email)
	if err != nil {
		return RegisterResult{}, err
	}
	if exists {
		return RegisterResult{}, identity.ErrDuplicateRegistration
	}

	m.mu.Lock()
	m.gen++
	g := m.gen
	m.state = StateAuthenticating
	m.notifyLocked()
	m.mu.Unlock()

	cred, err := m.dir.CreateCredential(ctx, email, password)
	if err != nil {
		m.fail(g)
		return RegisterResult{}, err
	}

	result := RegisterResult{PendingConfirmation: !cred.Confirmed}
	profile, err := m.dir.CreateProfile(ctx, cred.SubjectID, email, name)
	if err != nil {
		// The backend may still provision the profile out of band; the
		// credential is deliberately not rolled back.
		if m.logger != nil {
			m.logger.Warn("profile provisioning failed after credential creation",
				slog.String("subject", cred.SubjectID), slog.Any("error", err))
		}
		result.Warning = "account created, but profile setup is still in progress"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != g {
		return result, nil
	}
	switch {
	case profile == nil:
		// Fail closed: a credential without a profile never authenticates.
		m.clearLocked()
	case !cred.Confirmed:
		m.principal = PrincipalFromProfile(profile)
		m.subject = profile.ID
		m.state = StatePendingConfirmation
	default:
		m.principal = PrincipalFromProfile(profile)
		m.subject = profile.ID
		m.state = StateAuthenticated
	}
	m.notifyLocked()
	return result, nil
}

// Logout terminates the session. Idempotent: with no active session it is
// a no-op. The principal is cleared before the credential invalidation so
// no privileged state stays visible.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	subject := m.subject
	active := m.state != StateUnauthenticated || m.principal != nil
	m.gen++
	m.clearLocked()
	if active {
		m.notifyLocked()
	}
	m.mu.Unlock()

	if subject == "" {
		return
	}
	if err := m.dir.InvalidateCredential(ctx, subject); err != nil && m.logger != nil {
		m.logger.Warn("invalidate credential", slog.Any("error", err))
	}
}

// SignedIn applies an asynchronous sign-in notification for a subject. The
// profile fetch it triggers is bound to this event; any later transition
// discards its result.
func (m *Manager) SignedIn(ctx context.Context, subjectID string) {
	m.mu.Lock()
	m.gen++
	g := m.gen
	m.subject = subjectID
	m.state = StateResolving
	m.notifyLocked()
	m.mu.Unlock()

	go m.resolve(ctx, subjectID, g)
}

// SignedOut applies an asynchronous sign-out notification. Takes effect
// immediately; any in-flight resolution is discarded on arrival.
func (m *Manager) SignedOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.clearLocked()
	m.notifyLocked()
}

// fail returns the session to Unauthenticated unless a later transition
// already happened.
func (m *Manager) fail(g uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != g {
		return
	}
	m.clearLocked()
	m.notifyLocked()
}

func (m *Manager) clearLocked() {
	m.principal = nil
	m.subject = ""
	m.state = StateUnauthenticated
}

// Snapshot returns an atomic view of the session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, Principal: m.principal}
}

// Principal returns the current principal, nil unless Authenticated.
func (m *Manager) Principal() *Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return nil
	}
	return m.principal
}

// Subject returns the subject this session is bound to, empty when none.
func (m *Manager) Subject() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subject
}

// IsAuthenticated reports whether an authenticated principal is present.
func (m *Manager) IsAuthenticated() bool {
	return m.Principal() != nil
}

// IsAdmin reports whether the current principal is an active administrator.
func (m *Manager) IsAdmin() bool {
	return m.Principal().IsAdmin()
}

// Subscribe registers an observer for state snapshots. Observers are
// invoked in transition order and must not call back into the Manager.
// The returned function removes the observer.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notifyLocked() {
	snap := Snapshot{State: m.state, Principal: m.principal}
	for _, fn := range m.subs {
		fn(snap)
	}
}
