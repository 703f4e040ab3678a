package auth

import "errors"

var (
	// ErrMissingCredentials is returned when a required login field is empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials is returned when submitted credentials do not match.
	// It deliberately does not say which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers every rejected session token: malformed, tampered, expired or
	// signed with a different secret.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrNoSigningSecret means neither an explicit secret nor derivable credential material is configured.
	ErrNoSigningSecret = errors.New("no signing secret configured")
	// ErrCredentialsNotConfigured means the active credential mode has no expected values to compare against.
	ErrCredentialsNotConfigured = errors.New("staff credentials not configured")
	// ErrTooManyAttempts is returned when a client exceeded the failed-login budget.
	ErrTooManyAttempts = errors.New("too many login attempts")
)
