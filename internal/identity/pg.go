package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// PGConfig tunes the PostgreSQL directory.
type PGConfig struct {
	// RequireConfirmation issues new credentials unconfirmed, leaving
	// registrations in the pending-confirmation state until confirmed out
	// of band.
	RequireConfirmation bool
}

// PGDirectory implements Directory on PostgreSQL.
type PGDirectory struct {
	pool *pgxpool.Pool
	cfg  PGConfig
}

// NewPGDirectory constructs a PostgreSQL-backed directory.
func NewPGDirectory(pool *pgxpool.Pool, cfg PGConfig) *PGDirectory {
	return &PGDirectory{pool: pool, cfg: cfg}
}

// VerifyCredential checks an email/password pair and clears any prior
// revocation on success.
func (d *PGDirectory) VerifyCredential(ctx context.Context, email, password string) (Credential, error) {
	const query = `SELECT subject_id, password_hash, confirmed FROM credentials WHERE email_folded = $1`
	var (
		subjectID string
		hash      string
		confirmed bool
	)
	err := d.pool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(&subjectID, &hash, &confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrInvalidCredentials
		}
		return Credential{}, fmt.Errorf("%w: verify credential: %v", ErrBackendUnavailable, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Credential{}, ErrInvalidCredentials
	}
	const unrevoke = `UPDATE credentials SET revoked_at = NULL WHERE subject_id = $1 AND revoked_at IS NOT NULL`
	if _, err := d.pool.Exec(ctx, unrevoke, subjectID); err != nil {
		return Credential{}, fmt.Errorf("%w: verify credential: %v", ErrBackendUnavailable, err)
	}
	return Credential{SubjectID: subjectID, Confirmed: confirmed}, nil
}

// CreateCredential registers a new credential with a bcrypt password hash.
func (d *PGDirectory) CreateCredential(ctx context.Context, email, password string) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, fmt.Errorf("hash password: %w", err)
	}
	subjectID := uuid.NewString()
	confirmed := !d.cfg.RequireConfirmation
	const query = `
		INSERT INTO credentials (subject_id, email, email_folded, password_hash, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = d.pool.Exec(ctx, query, subjectID, email, NormalizeEmail(email), string(hash), confirmed, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Credential{}, ErrDuplicateRegistration
		}
		return Credential{}, fmt.Errorf("%w: create credential: %v", ErrBackendUnavailable, err)
	}
	return Credential{SubjectID: subjectID, Confirmed: confirmed}, nil
}

// InvalidateCredential stamps the credential as revoked. Session-level
// teardown is driven by the signed-out event, not by this record.
func (d *PGDirectory) InvalidateCredential(ctx context.Context, subjectID string) error {
	const query = `UPDATE credentials SET revoked_at = $2 WHERE subject_id = $1`
	if _, err := d.pool.Exec(ctx, query, subjectID, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: invalidate credential: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// EmailExists reports whether the email already has a credential.
func (d *PGDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM credentials WHERE email_folded = $1)`
	var exists bool
	if err := d.pool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: email exists: %v", ErrBackendUnavailable, err)
	}
	return exists, nil
}

// FetchProfile loads the profile backing a subject.
func (d *PGDirectory) FetchProfile(ctx context.Context, subjectID string) (*Profile, error) {
	const query = `
		SELECT id, email, full_name, base_role, COALESCE(admin_role, ''), is_active, created_at, last_login
		FROM profiles WHERE id = $1`
	var (
		profile   Profile
		baseRole  string
		adminRole string
		lastLogin *time.Time
	)
	err := d.pool.QueryRow(ctx, query, subjectID).Scan(
		&profile.ID, &profile.Email, &profile.FullName, &baseRole,
		&adminRole, &profile.Active, &profile.CreatedAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: fetch profile: %v", ErrBackendUnavailable, err)
	}
	profile.BaseRole = BaseRole(baseRole)
	profile.AdminRole = adminRoleFromString(adminRole)
	profile.LastLoginAt = lastLogin
	return &profile, nil
}

// CreateProfile provisions the profile for a new credential. An existing
// profile is returned as-is.
func (d *PGDirectory) CreateProfile(ctx context.Context, subjectID, email, fullName string) (*Profile, error) {
	const query = `
		INSERT INTO profiles (id, email, full_name, base_role, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (id) DO NOTHING`
	if _, err := d.pool.Exec(ctx, query, subjectID, email, fullName, string(BaseRoleUser), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: create profile: %v", ErrBackendUnavailable, err)
	}
	profile, err := d.FetchProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: create profile: record not visible after insert", ErrBackendUnavailable)
	}
	return profile, nil
}

// TouchLastLogin stamps the last-login time. Best effort.
func (d *PGDirectory) TouchLastLogin(ctx context.Context, subjectID string) error {
	const query = `UPDATE profiles SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := d.pool.Exec(ctx, query, subjectID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

var _ Directory = (*PGDirectory)(nil)
