package ports

// Package ports defines interfaces (hexagonal ports) for staff authentication.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

// CredentialVerifier checks a login submission against configured expected values.
type CredentialVerifier interface {
	// Mode reports which credential shape this verifier accepts.
	Mode() domainauth.Mode

	// Verify returns the subject to mint a session for, or ErrMissingCredentials /
	// ErrInvalidCredentials. Implementations must compare secrets in constant time.
	Verify(ctx context.Context, creds domainauth.Credentials) (subject string, err error)
}

// TokenCodec mints and verifies signed session tokens.
type TokenCodec interface {
	Mint(p domainauth.Principal) (string, error)

	// Verify never panics on untrusted input. Any rejection is ErrInvalidToken, except a
	// missing signing secret which is reported as ErrNoSigningSecret.
	Verify(token string) (domainauth.Principal, error)
}

// ThrottleDecision is the outcome of a login throttle check.
type ThrottleDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LoginThrottle limits failed login attempts per client key within a fixed window.
type LoginThrottle interface {
	// Check reports whether another attempt is allowed without consuming budget.
	Check(ctx context.Context, key string) (ThrottleDecision, error)
	// RecordFailure counts a failed attempt and returns the updated decision.
	RecordFailure(ctx context.Context, key string) (ThrottleDecision, error)
	// Reset clears the failure count, typically after a successful login.
	Reset(ctx context.Context, key string) error
}

// AuditRecorder appends entries to the login audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, ev domainauth.AuditEvent) error
}

// AuditReader lists recent audit entries, newest first.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]domainauth.AuditEvent, error)
}

// AuditPruner removes audit entries older than a cutoff.
type AuditPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthMetrics observes authentication outcomes.
type AuthMetrics interface {
	ObserveLogin(mode domainauth.Mode, result string)
	ObserveSessionCheck(result string)
	ObserveLogout()
}
