package httpx

import (
	"errors"
	"net/http"

	"github.com/wolv-invest/platform/internal/identity"
)

// RespondError maps identity errors to HTTP problem responses. Invalid
// credentials and deactivated accounts surface as inline messages; backend
// failures become a generic retryable error.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "email or password is incorrect")
	case errors.Is(err, identity.ErrAccountDeactivated):
		Problem(w, http.StatusForbidden, "Account Deactivated", "this account has been deactivated")
	case errors.Is(err, identity.ErrProfileMissing):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "account profile is unavailable")
	case errors.Is(err, identity.ErrDuplicateRegistration):
		Problem(w, http.StatusConflict, "Duplicate Registration", "an account with this email already exists")
	case errors.Is(err, identity.ErrBackendUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "please try again shortly")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
