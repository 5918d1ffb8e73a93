package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/session"
	_ "github.com/wolv-invest/platform/testing"
)

type stubCredential struct {
	subject   string
	password  string
	confirmed bool
}

// stubDirectory is an in-memory identity backend. fetchGate, when set,
// blocks FetchProfile until the channel is closed so tests can interleave
// async completions deterministically.
type stubDirectory struct {
	mu                sync.Mutex
	credentials       map[string]stubCredential // keyed by folded email
	profiles          map[string]*identity.Profile
	fetchGate         chan struct{}
	failCreateProfile bool
	failFetch         bool

	createCredentialCalls int
	invalidated           []string
	touched               []string
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		credentials: make(map[string]stubCredential),
		profiles:    make(map[string]*identity.Profile),
	}
}

func (d *stubDirectory) addAccount(subject, email, password string, confirmed, active bool, role authz.AdminRole) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.credentials[identity.NormalizeEmail(email)] = stubCredential{subject: subject, password: password, confirmed: confirmed}
	base := identity.BaseRoleUser
	if role != "" {
		base = identity.BaseRoleAdmin
	}
	d.profiles[subject] = &identity.Profile{
		ID:        subject,
		Email:     email,
		FullName:  "Test Account",
		BaseRole:  base,
		AdminRole: role,
		Active:    active,
		CreatedAt: time.Now(),
	}
}

func (d *stubDirectory) VerifyCredential(ctx context.Context, email, password string) (identity.Credential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cred, ok := d.credentials[identity.NormalizeEmail(email)]
	if !ok || cred.password != password {
		return identity.Credential{}, identity.ErrInvalidCredentials
	}
	return identity.Credential{SubjectID: cred.subject, Confirmed: cred.confirmed}, nil
}

func (d *stubDirectory) CreateCredential(ctx context.Context, email, password string) (identity.Credential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createCredentialCalls++
	folded := identity.NormalizeEmail(email)
	if _, ok := d.credentials[folded]; ok {
		return identity.Credential{}, identity.ErrDuplicateRegistration
	}
	subject := "subject-" + folded
	d.credentials[folded] = stubCredential{subject: subject, password: password, confirmed: true}
	return identity.Credential{SubjectID: subject, Confirmed: true}, nil
}

func (d *stubDirectory) InvalidateCredential(ctx context.Context, subjectID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invalidated = append(d.invalidated, subjectID)
	return nil
}

func (d *stubDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.credentials[identity.NormalizeEmail(email)]
	return ok, nil
}

func (d *stubDirectory) FetchProfile(ctx context.Context, subjectID string) (*identity.Profile, error) {
	d.mu.Lock()
	gate := d.fetchGate
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFetch {
		return nil, identity.ErrBackendUnavailable
	}
	profile, ok := d.profiles[subjectID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (d *stubDirectory) setFailFetch(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failFetch = fail
}

func (d *stubDirectory) CreateProfile(ctx context.Context, subjectID, email, fullName string) (*identity.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failCreateProfile {
		return nil, identity.ErrBackendUnavailable
	}
	if existing, ok := d.profiles[subjectID]; ok {
		copied := *existing
		return &copied, nil
	}
	profile := &identity.Profile{
		ID:        subjectID,
		Email:     email,
		FullName:  fullName,
		BaseRole:  identity.BaseRoleUser,
		Active:    true,
		CreatedAt: time.Now(),
	}
	d.profiles[subjectID] = profile
	copied := *profile
	return &copied, nil
}

func (d *stubDirectory) TouchLastLogin(ctx context.Context, subjectID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touched = append(d.touched, subjectID)
	return nil
}

var _ identity.Directory = (*stubDirectory)(nil)

func waitForState(t *testing.T, m *session.Manager, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Snapshot().State == want
	}, 2*time.Second, 5*time.Millisecond, "waiting for state %s", want)
}

func TestStartWithoutPersistedCredentialStaysUnauthenticated(t *testing.T) {
	dir := newStubDirectory()
	m := session.NewManager(session.Config{Directory: dir})
	m.Start(context.Background())

	snap := m.Snapshot()
	require.Equal(t, session.StateUnauthenticated, snap.State)
	require.Nil(t, snap.Principal)
}

func TestStartRecoversPersistedSession(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir, Subject: "subject-1"})
	m.Start(context.Background())

	waitForState(t, m, session.StateAuthenticated)
	require.Equal(t, "subject-1", m.Principal().ID)
	require.True(t, m.IsAuthenticated())
	require.False(t, m.IsAdmin())
}

func TestStartWithMissingProfileEndsUnauthenticated(t *testing.T) {
	dir := newStubDirectory()
	m := session.NewManager(session.Config{Directory: dir, Subject: "ghost"})
	m.Start(context.Background())

	waitForState(t, m, session.StateUnauthenticated)
	require.Nil(t, m.Principal())
	// A missing profile is authoritative: the subject is unbound.
	require.Empty(t, m.Subject())
}

func TestStartTransientFetchFailureKeepsSubject(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	dir.setFailFetch(true)
	m := session.NewManager(session.Config{Directory: dir, Subject: "subject-1"})

	<-m.Start(context.Background())
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Nil(t, m.Principal())
	require.Equal(t, "subject-1", m.Subject())

	// The backend recovers; the next Start resolves the kept subject.
	dir.setFailFetch(false)
	<-m.Start(context.Background())
	require.True(t, m.IsAuthenticated())
	require.Equal(t, "subject-1", m.Principal().ID)
}

func TestStartWithInactiveProfileEndsUnauthenticated(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, false, "")
	m := session.NewManager(session.Config{Directory: dir, Subject: "subject-1"})
	m.Start(context.Background())

	waitForState(t, m, session.StateUnauthenticated)
}

func TestLoginSuccess(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, authz.RoleManager)
	m := session.NewManager(session.Config{Directory: dir})

	require.NoError(t, m.Login(context.Background(), "amina@example.com", "pw"))
	require.Equal(t, session.StateAuthenticated, m.Snapshot().State)
	require.True(t, m.IsAdmin())
	require.Equal(t, []string{"subject-1"}, dir.touched)
}

func TestLoginInvalidCredentials(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir})

	err := m.Login(context.Background(), "amina@example.com", "wrong")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
}

func TestLoginWithoutProfileFailsClosed(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	dir.mu.Lock()
	delete(dir.profiles, "subject-1")
	dir.mu.Unlock()
	m := session.NewManager(session.Config{Directory: dir})

	err := m.Login(context.Background(), "amina@example.com", "pw")
	require.ErrorIs(t, err, identity.ErrProfileMissing)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Nil(t, m.Principal())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, false, authz.RoleSuperAdmin)
	m := session.NewManager(session.Config{Directory: dir})

	err := m.Login(context.Background(), "amina@example.com", "pw")
	require.ErrorIs(t, err, identity.ErrAccountDeactivated)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Empty(t, dir.touched)
}

func TestRegisterDuplicateEmailIsCaseInsensitiveAndSideEffectFree(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir})

	_, err := m.Register(context.Background(), "Amina", "AMINA@Example.COM", "pw2")
	require.ErrorIs(t, err, identity.ErrDuplicateRegistration)
	require.Zero(t, dir.createCredentialCalls)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
}

func TestRegisterSuccess(t *testing.T) {
	dir := newStubDirectory()
	m := session.NewManager(session.Config{Directory: dir})

	result, err := m.Register(context.Background(), "Jon", "jon@example.com", "pw")
	require.NoError(t, err)
	require.False(t, result.PendingConfirmation)
	require.Empty(t, result.Warning)
	require.Equal(t, session.StateAuthenticated, m.Snapshot().State)
	require.Equal(t, "jon@example.com", m.Principal().Email)
}

func TestRegisterProfileFailureIsSoftSuccess(t *testing.T) {
	dir := newStubDirectory()
	dir.failCreateProfile = true
	m := session.NewManager(session.Config{Directory: dir})

	result, err := m.Register(context.Background(), "Jon", "jon@example.com", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, result.Warning)
	// Credential kept, but a profileless credential never authenticates.
	require.Equal(t, 1, dir.createCredentialCalls)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Nil(t, m.Principal())
}

func TestLogoutIsIdempotent(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir})
	require.NoError(t, m.Login(context.Background(), "amina@example.com", "pw"))

	m.Logout(context.Background())
	first := m.Snapshot()
	m.Logout(context.Background())
	second := m.Snapshot()

	require.Equal(t, first, second)
	require.Equal(t, session.StateUnauthenticated, second.State)
	require.Equal(t, []string{"subject-1"}, dir.invalidated)
}

func TestSignOutEventDiscardsPendingProfileFetch(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	gate := make(chan struct{})
	dir.mu.Lock()
	dir.fetchGate = gate
	dir.mu.Unlock()

	m := session.NewManager(session.Config{Directory: dir})
	m.SignedIn(context.Background(), "subject-1")
	require.Equal(t, session.StateResolving, m.Snapshot().State)

	// The sign-out arrives while the profile fetch is still pending.
	m.SignedOut()
	close(gate)

	// The fetch result must be discarded on arrival.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Nil(t, m.Principal())
}

func TestEventDuringInitialResolutionWins(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	dir.addAccount("subject-2", "jon@example.com", "pw", true, true, authz.RoleAnalyst)
	gate := make(chan struct{})
	dir.mu.Lock()
	dir.fetchGate = gate
	dir.mu.Unlock()

	m := session.NewManager(session.Config{Directory: dir, Subject: "subject-1"})
	m.Start(context.Background())
	require.Equal(t, session.StateResolving, m.Snapshot().State)

	// A sign-in event for a different subject arrives mid-resolution.
	m.SignedIn(context.Background(), "subject-2")

	// Release both fetches; the event's result must win regardless of
	// completion order.
	dir.mu.Lock()
	dir.fetchGate = nil
	dir.mu.Unlock()
	close(gate)

	waitForState(t, m, session.StateAuthenticated)
	require.Equal(t, "subject-2", m.Principal().ID)
}

func TestLogoutDuringLoginDiscardsResult(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	gate := make(chan struct{})
	dir.mu.Lock()
	dir.fetchGate = gate
	dir.mu.Unlock()

	m := session.NewManager(session.Config{Directory: dir})
	done := make(chan error, 1)
	go func() { done <- m.Login(context.Background(), "amina@example.com", "pw") }()

	waitForState(t, m, session.StateAuthenticating)
	m.Logout(context.Background())
	close(gate)

	require.NoError(t, <-done)
	require.Equal(t, session.StateUnauthenticated, m.Snapshot().State)
	require.Nil(t, m.Principal())
}

func TestSubscribeObservesTransitionsInOrder(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir})

	var mu sync.Mutex
	var states []session.State
	unsubscribe := m.Subscribe(func(snap session.Snapshot) {
		mu.Lock()
		states = append(states, snap.State)
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, m.Login(context.Background(), "amina@example.com", "pw"))
	m.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []session.State{
		session.StateAuthenticating,
		session.StateAuthenticated,
		session.StateUnauthenticated,
	}, states)
}

func TestUnsubscribedObserverStopsReceiving(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", true, true, "")
	m := session.NewManager(session.Config{Directory: dir})

	calls := 0
	unsubscribe := m.Subscribe(func(session.Snapshot) { calls++ })
	unsubscribe()

	require.NoError(t, m.Login(context.Background(), "amina@example.com", "pw"))
	require.Zero(t, calls)
}

func TestPrincipalHiddenOutsideAuthenticatedState(t *testing.T) {
	dir := newStubDirectory()
	dir.addAccount("subject-1", "amina@example.com", "pw", false, true, "")
	m := session.NewManager(session.Config{Directory: dir})

	require.NoError(t, m.Login(context.Background(), "amina@example.com", "pw"))
	require.Equal(t, session.StatePendingConfirmation, m.Snapshot().State)
	require.Nil(t, m.Principal())
	require.False(t, m.IsAuthenticated())
}

func TestEffectiveAdminRoleDefaultsToLeastPrivileged(t *testing.T) {
	p := &session.Principal{BaseRole: identity.BaseRoleAdmin, Active: true}
	require.Equal(t, authz.DefaultAdminRole, p.EffectiveAdminRole())

	p.AdminRole = authz.RoleManager
	require.Equal(t, authz.RoleManager, p.EffectiveAdminRole())

	var nilPrincipal *session.Principal
	require.Empty(t, nilPrincipal.EffectiveAdminRole())
	require.False(t, nilPrincipal.IsAdmin())
}
