// Package identity is the boundary to the credential and profile backend.
// The session layer consumes the Directory interface and the asynchronous
// auth-event stream; it never talks to storage directly.
package identity

import (
	"context"

	"golang.org/x/text/cases"
)

// Directory exposes the credential and profile operations of the identity
// backend.
type Directory interface {
	// VerifyCredential checks an email/password pair. Failures are
	// ErrInvalidCredentials regardless of which half was wrong.
	VerifyCredential(ctx context.Context, email, password string) (Credential, error)

	// CreateCredential registers a new credential. An existing email yields
	// ErrDuplicateRegistration.
	CreateCredential(ctx context.Context, email, password string) (Credential, error)

	// InvalidateCredential revokes the subject's credential.
	InvalidateCredential(ctx context.Context, subjectID string) error

	// EmailExists reports whether a credential already exists for the
	// email, compared case-insensitively.
	EmailExists(ctx context.Context, email string) (bool, error)

	// FetchProfile loads the profile backing a subject. A missing profile
	// is (nil, nil), not an error.
	FetchProfile(ctx context.Context, subjectID string) (*Profile, error)

	// CreateProfile provisions the profile record for a fresh credential.
	// Idempotent: an existing profile is returned unchanged.
	CreateProfile(ctx context.Context, subjectID, email, fullName string) (*Profile, error)

	// TouchLastLogin stamps the profile's last-login time. Best effort;
	// callers must not fail their surrounding operation on error.
	TouchLastLogin(ctx context.Context, subjectID string) error
}

var emailFolder = cases.Fold()

// NormalizeEmail case-folds an email address for comparison and storage
// lookups.
func NormalizeEmail(email string) string {
	return emailFolder.String(email)
}
