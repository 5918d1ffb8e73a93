package users

import (
	"context"
	"errors"
	"log/slog"
)

// ErrAccountNotFound reports an operation against an unknown account.
var ErrAccountNotFound = errors.New("account not found")

// RepositoryPort defines data access methods for account management.
type RepositoryPort interface {
	ListAccounts(ctx context.Context, filter ListFilter) ([]Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	CountAccounts(ctx context.Context) (Counts, error)
}

// Revoker broadcasts that an account's sessions must end. Satisfied by the
// identity event hub.
type Revoker interface {
	PublishSignedOut(ctx context.Context, subjectID string) error
}

// Service handles account management business logic.
type Service struct {
	repo    RepositoryPort
	revoker Revoker
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, revoker Revoker, logger *slog.Logger) *Service {
	return &Service{repo: repo, revoker: revoker, logger: logger}
}

// ListAccounts returns accounts matching the filter.
func (s *Service) ListAccounts(ctx context.Context, filter ListFilter) ([]Account, error) {
	return s.repo.ListAccounts(ctx, filter)
}

// GetAccount loads one account.
func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Suspend deactivates an account and revokes its live sessions. Suspending
// an already-suspended account is a no-op.
func (s *Service) Suspend(ctx context.Context, id string) (*Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return nil, err
	}
	account.Active = false
	if !changed {
		return account, nil
	}
	if err := s.revoker.PublishSignedOut(ctx, id); err != nil && s.logger != nil {
		// The flag is already persisted; live sessions expire on their own.
		s.logger.Warn("publish revocation", slog.String("account", id), slog.Any("error", err))
	}
	return account, nil
}

// Activate reinstates a suspended account.
func (s *Service) Activate(ctx context.Context, id string) (*Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.SetActive(ctx, id, true); err != nil {
		return nil, err
	}
	account.Active = true
	return account, nil
}

// ExportAccounts returns the unbounded account listing for export.
func (s *Service) ExportAccounts(ctx context.Context, filter ListFilter) ([]Account, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10000
	}
	return s.repo.ListAccounts(ctx, filter)
}

// CountAccounts aggregates dashboard counters.
func (s *Service) CountAccounts(ctx context.Context) (Counts, error) {
	return s.repo.CountAccounts(ctx)
}
