package auth

import "errors"

// Failure taxonomy of the identity core. Callers match with errors.Is.
var (
	ErrMissing           = errors.New("auth: missing bearer token")
	ErrMalformed         = errors.New("auth: malformed token")
	ErrSignatureInvalid  = errors.New("auth: invalid token signature")
	ErrExpired           = errors.New("auth: token expired")
	ErrRevoked           = errors.New("auth: token revoked")
	ErrInsufficientRole  = errors.New("auth: insufficient role")
	ErrLookupUnavailable = errors.New("auth: identity lookup unavailable")
	ErrUserNotFound      = errors.New("auth: user not found")
)

// Reason maps an identity-core error to a stable label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissing):
		return "missing"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrRevoked):
		return "revoked"
	case errors.Is(err, ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrLookupUnavailable):
		return "lookup_unavailable"
	default:
		return "unknown"
	}
}
