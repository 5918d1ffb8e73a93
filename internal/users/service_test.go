package users_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/users"
	_ "github.com/wolv-invest/platform/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	accounts map[string]*users.Account
}

func newStubRepo(accounts ...users.Account) *stubRepo {
	repo := &stubRepo{accounts: make(map[string]*users.Account)}
	for i := range accounts {
		a := accounts[i]
		repo.accounts[a.ID] = &a
	}
	return repo
}

func (r *stubRepo) ListAccounts(ctx context.Context, filter users.ListFilter) ([]users.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []users.Account
	for _, a := range r.accounts {
		if filter.ActiveOnly && !a.Active {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubRepo) GetAccount(ctx context.Context, id string) (*users.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *stubRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.Active == active {
		return false, nil
	}
	a.Active = active
	return true, nil
}

func (r *stubRepo) CountAccounts(ctx context.Context) (users.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts users.Counts
	for _, a := range r.accounts {
		counts.Total++
		if a.Active {
			counts.Active++
		} else {
			counts.Suspended++
		}
		if a.BaseRole == identity.BaseRoleAdmin {
			counts.Admins++
		}
	}
	return counts, nil
}

type stubRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (r *stubRevoker) PublishSignedOut(ctx context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, subjectID)
	return nil
}

func (r *stubRevoker) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.revoked...)
}

func account(id string, active bool, base identity.BaseRole) users.Account {
	return users.Account{
		ID: id, Email: id + "@example.com", FullName: "Account " + id,
		BaseRole: base, Active: active, CreatedAt: time.Now(),
	}
}

func TestSuspendRevokesSessions(t *testing.T) {
	repo := newStubRepo(account("u1", true, identity.BaseRoleUser))
	revoker := &stubRevoker{}
	svc := users.NewService(repo, revoker, nil)

	suspended, err := svc.Suspend(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, suspended.Active)
	require.Equal(t, []string{"u1"}, revoker.subjects())
}

func TestSuspendAlreadySuspendedDoesNotRevokeAgain(t *testing.T) {
	repo := newStubRepo(account("u1", false, identity.BaseRoleUser))
	revoker := &stubRevoker{}
	svc := users.NewService(repo, revoker, nil)

	suspended, err := svc.Suspend(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, suspended.Active)
	require.Empty(t, revoker.subjects())
}

func TestSuspendUnknownAccount(t *testing.T) {
	svc := users.NewService(newStubRepo(), &stubRevoker{}, nil)

	_, err := svc.Suspend(context.Background(), "missing")
	require.ErrorIs(t, err, users.ErrAccountNotFound)
}

func TestActivateRestoresAccountWithoutRevocation(t *testing.T) {
	repo := newStubRepo(account("u1", false, identity.BaseRoleUser))
	revoker := &stubRevoker{}
	svc := users.NewService(repo, revoker, nil)

	activated, err := svc.Activate(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, activated.Active)
	require.Empty(t, revoker.subjects())

	stored, err := svc.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, stored.Active)
}

func TestCountAccounts(t *testing.T) {
	repo := newStubRepo(
		account("u1", true, identity.BaseRoleUser),
		account("u2", false, identity.BaseRoleUser),
		account("a1", true, identity.BaseRoleAdmin),
	)
	svc := users.NewService(repo, &stubRevoker{}, nil)

	counts, err := svc.CountAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, users.Counts{Total: 3, Active: 2, Suspended: 1, Admins: 1}, counts)
}

func TestListAccountsActiveOnly(t *testing.T) {
	repo := newStubRepo(
		account("u1", true, identity.BaseRoleUser),
		account("u2", false, identity.BaseRoleUser),
	)
	svc := users.NewService(repo, &stubRevoker{}, nil)

	listed, err := svc.ListAccounts(context.Background(), users.ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "u1", listed[0].ID)
}
