package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/identity"
)

const defaultListLimit = 100

// Repository provides PostgreSQL backed persistence over profile records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAccounts returns accounts matching the filter, newest first.
func (r *Repository) ListAccounts(ctx context.Context, filter ListFilter) ([]Account, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Query != "" {
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
		arg := fmt.Sprintf("$%d", len(args))
		conds = append(conds, fmt.Sprintf("(LOWER(email) LIKE %s OR LOWER(full_name) LIKE %s)", arg, arg))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("base_role = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}

	query := `
		SELECT id, email, full_name, base_role, COALESCE(admin_role, ''), is_active, created_at, last_login
		FROM profiles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			account   Account
			baseRole  string
			adminRole string
		)
		if err := rows.Scan(&account.ID, &account.Email, &account.FullName, &baseRole, &adminRole,
			&account.Active, &account.CreatedAt, &account.LastLoginAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.BaseRole = identityBaseRole(baseRole)
		account.AdminRole = authz.AdminRole(adminRole)
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// GetAccount loads a single account, nil when absent.
func (r *Repository) GetAccount(ctx context.Context, id string) (*Account, error) {
	const query = `
		SELECT id, email, full_name, base_role, COALESCE(admin_role, ''), is_active, created_at, last_login
		FROM profiles WHERE id = $1`
	var (
		account   Account
		baseRole  string
		adminRole string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(&account.ID, &account.Email, &account.FullName,
		&baseRole, &adminRole, &account.Active, &account.CreatedAt, &account.LastLoginAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	account.BaseRole = identityBaseRole(baseRole)
	account.AdminRole = authz.AdminRole(adminRole)
	return &account, nil
}

// SetActive flips the activation flag and reports whether a row changed.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	const query = `UPDATE profiles SET is_active = $2, updated_at = $3 WHERE id = $1 AND is_active <> $2`
	tag, err := r.pool.Exec(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set active: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountAccounts aggregates population counters for the dashboard.
func (r *Repository) CountAccounts(ctx context.Context) (Counts, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE NOT is_active),
		       COUNT(*) FILTER (WHERE base_role = 'admin')
		FROM profiles`
	var counts Counts
	if err := r.pool.QueryRow(ctx, query).Scan(&counts.Total, &counts.Active, &counts.Suspended, &counts.Admins); err != nil {
		return Counts{}, fmt.Errorf("count accounts: %w", err)
	}
	return counts, nil
}

func identityBaseRole(s string) identity.BaseRole {
	if s == string(identity.BaseRoleAdmin) {
		return identity.BaseRoleAdmin
	}
	return identity.BaseRoleUser
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

