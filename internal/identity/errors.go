package identity

import "errors"

var (
	// ErrInvalidCredentials indicates a wrong email or password. The two
	// cases are deliberately indistinguishable to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated indicates a valid credential whose profile is
	// inactive.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrProfileMissing indicates a valid credential with no backing
	// profile record.
	ErrProfileMissing = errors.New("profile missing")
	// ErrDuplicateRegistration indicates the email is already registered.
	ErrDuplicateRegistration = errors.New("email already registered")
	// ErrBackendUnavailable indicates a transient backend failure.
	ErrBackendUnavailable = errors.New("identity backend unavailable")
)
