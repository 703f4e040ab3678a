package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/observability/metrics"
	"github.com/vitalora/staffgate/internal/observability/tracing"
	"github.com/vitalora/staffgate/internal/ports"
)

// Audit reasons recorded for failed logins.
const (
	reasonMissingCredentials = "missing_credentials"
	reasonInvalidCredentials = "invalid_credentials"
	reasonNotConfigured      = "not_configured"
	reasonNoSigningSecret    = "no_signing_secret"
	reasonThrottled          = "too_many_attempts"
)

const unknownClientKey = "unknown"

// ThrottledError reports a login rejected by the attempt budget. It unwraps to ErrTooManyAttempts.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", domainauth.ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Unwrap() error { return domainauth.ErrTooManyAttempts }

// AuthCore groups the dependencies every login needs.
type AuthCore struct {
	Verifier ports.CredentialVerifier // Required
	Codec    ports.TokenCodec         // Required
	Session  SessionPolicy
}

// SessionPolicy controls minted session lifetimes.
type SessionPolicy struct {
	TTL time.Duration
	Now func() time.Time // Optional: defaults to time.Now
}

// AuthSupport groups optional collaborators. Nil fields disable the feature.
type AuthSupport struct {
	Throttle ports.LoginThrottle
	Audit    ports.AuditRecorder
	Metrics  ports.AuthMetrics
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Core    AuthCore
	Support AuthSupport
	Logger  *slog.Logger // Optional: structured logger
}

// AuthService orchestrates staff login, session checks and logout.
type AuthService struct {
	verifier ports.CredentialVerifier
	codec    ports.TokenCodec
	ttl      time.Duration
	now      func() time.Time
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
	metrics  ports.AuthMetrics
	logger   *slog.Logger
}

// NewAuthService constructs an AuthService. Verifier and Codec are required and TTL must be positive.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Core.Verifier == nil {
		return nil, errors.New("CredentialVerifier is required")
	}
	if opts.Core.Codec == nil {
		return nil, errors.New("TokenCodec is required")
	}
	if opts.Core.Session.TTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	s := &AuthService{
		verifier: opts.Core.Verifier,
		codec:    opts.Core.Codec,
		ttl:      opts.Core.Session.TTL,
		now:      opts.Core.Session.Now,
		throttle: opts.Support.Throttle,
		audit:    opts.Support.Audit,
		metrics:  opts.Support.Metrics,
		logger:   opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "auth_service")
	return s, nil
}

// Mode reports the active credential mode.
func (s *AuthService) Mode() domainauth.Mode { return s.verifier.Mode() }

// TTL reports the configured session lifetime.
func (s *AuthService) TTL() time.Duration { return s.ttl }

// LoginInput groups the parameters for a login attempt.
type LoginInput struct {
	Credentials domainauth.Credentials
	Client      domainauth.ClientInfo
}

// LoginResult is a freshly minted session.
type LoginResult struct {
	Token     string
	Principal domainauth.Principal
}

// Login verifies credentials and mints a session token.
//
// Errors: ErrMissingCredentials, ErrInvalidCredentials, *ThrottledError, and
// ErrCredentialsNotConfigured or ErrNoSigningSecret when the deployment is misconfigured.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	mode := s.verifier.Mode()
	ctx, span := tracing.StartLoginSpan(ctx, string(mode))

	res, result, err := s.login(ctx, in)
	s.metrics.ObserveLogin(mode, result)
	tracing.EndSpan(span, result, err)
	return res, err
}

func (s *AuthService) login(ctx context.Context, in LoginInput) (*LoginResult, string, error) {
	key := clientKey(in.Client)

	if decision, ok := s.checkThrottle(ctx, key); !ok {
		s.record(ctx, s.auditEvent(domainauth.AuditLoginThrottled, in.Client, "", reasonThrottled))
		return nil, metrics.ResultThrottled, &ThrottledError{RetryAfter: decision.RetryAfter}
	}

	subject, err := s.verifier.Verify(ctx, in.Credentials.Sanitized())
	if err != nil {
		return nil, s.loginFailed(ctx, key, in.Client, err), err
	}

	principal, err := domainauth.NewPrincipal(subject, s.now(), s.ttl)
	if err != nil {
		return nil, metrics.ResultError, fmt.Errorf("build principal: %w", err)
	}
	token, err := s.codec.Mint(principal)
	if err != nil {
		if errors.Is(err, domainauth.ErrNoSigningSecret) {
			s.logger.ErrorContext(ctx, "cannot mint session: no signing secret configured")
			s.record(ctx, s.auditEvent(domainauth.AuditLoginFailed, in.Client, subject, reasonNoSigningSecret))
			return nil, metrics.ResultMisconfigured, err
		}
		return nil, metrics.ResultError, fmt.Errorf("mint session token: %w", err)
	}

	s.resetThrottle(ctx, key)
	s.record(ctx, s.auditEvent(domainauth.AuditLoginSucceeded, in.Client, principal.Subject, ""))
	s.logger.InfoContext(ctx, "staff login succeeded",
		"subject", principal.Subject,
		"mode", s.verifier.Mode(),
		"client_ip", in.Client.IP,
		"expires_at", principal.ExpiresAt,
	)
	return &LoginResult{Token: token, Principal: principal}, metrics.ResultSuccess, nil
}

// loginFailed handles a verifier error and returns its metric result label.
func (s *AuthService) loginFailed(ctx context.Context, key string, client domainauth.ClientInfo, err error) string {
	switch {
	case errors.Is(err, domainauth.ErrMissingCredentials):
		s.record(ctx, s.auditEvent(domainauth.AuditLoginFailed, client, "", reasonMissingCredentials))
		return metrics.ResultMissing
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		s.recordFailure(ctx, key)
		s.record(ctx, s.auditEvent(domainauth.AuditLoginFailed, client, "", reasonInvalidCredentials))
		s.logger.WarnContext(ctx, "staff login rejected", "mode", s.verifier.Mode(), "client_ip", client.IP)
		return metrics.ResultInvalid
	case errors.Is(err, domainauth.ErrCredentialsNotConfigured):
		s.logger.ErrorContext(ctx, "staff login unavailable: credentials not configured", "mode", s.verifier.Mode())
		s.record(ctx, s.auditEvent(domainauth.AuditLoginFailed, client, "", reasonNotConfigured))
		return metrics.ResultMisconfigured
	default:
		s.logger.ErrorContext(ctx, "credential verification failed", "error", err)
		return metrics.ResultError
	}
}

// Authenticate verifies a session token and returns its principal.
// A missing signing secret yields ErrNoSigningSecret whether or not a token was sent;
// otherwise an empty token yields ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domainauth.Principal, error) {
	ctx, span := tracing.StartAuthenticateSpan(ctx)

	p, result, err := s.authenticate(ctx, token)
	s.metrics.ObserveSessionCheck(result)
	tracing.EndSpan(span, result, err)
	return p, err
}

func (s *AuthService) authenticate(ctx context.Context, token string) (domainauth.Principal, string, error) {
	p, err := s.codec.Verify(token)
	switch {
	case err == nil:
		return p, metrics.ResultSuccess, nil
	case errors.Is(err, domainauth.ErrNoSigningSecret):
		s.logger.ErrorContext(ctx, "cannot verify session: no signing secret configured")
		return domainauth.Principal{}, metrics.ResultMisconfigured, err
	case strings.TrimSpace(token) == "":
		return domainauth.Principal{}, metrics.ResultNoSession, fmt.Errorf("%w: no session", domainauth.ErrInvalidToken)
	default:
		s.logger.DebugContext(ctx, "session token rejected", "error", err)
		return domainauth.Principal{}, metrics.ResultInvalid, err
	}
}

// Logout records a logout. Sessions are stateless, so the only server-side effect is the audit entry;
// the caller clears the cookie. token may be empty or invalid.
func (s *AuthService) Logout(ctx context.Context, token string, client domainauth.ClientInfo) {
	subject := ""
	if token != "" {
		if p, err := s.codec.Verify(token); err == nil {
			subject = p.Subject
		}
	}
	s.metrics.ObserveLogout()
	s.record(ctx, s.auditEvent(domainauth.AuditLogout, client, subject, ""))
}

func (s *AuthService) checkThrottle(ctx context.Context, key string) (ports.ThrottleDecision, bool) {
	if s.throttle == nil {
		return ports.ThrottleDecision{Allowed: true}, true
	}
	decision, err := s.throttle.Check(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "login throttle unavailable, allowing attempt", "error", err)
		return ports.ThrottleDecision{Allowed: true}, true
	}
	if !decision.Allowed {
		s.logger.WarnContext(ctx, "staff login throttled", "client_ip", key, "retry_after", decision.RetryAfter)
	}
	return decision, decision.Allowed
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if _, err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

func (s *AuthService) resetThrottle(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login throttle", "error", err)
	}
}

func (s *AuthService) auditEvent(
	typ domainauth.AuditEventType,
	client domainauth.ClientInfo,
	subject, reason string,
) domainauth.AuditEvent {
	return domainauth.AuditEvent{
		Type:       typ,
		Subject:    subject,
		Mode:       s.verifier.Mode(),
		ClientIP:   client.IP,
		UserAgent:  client.UserAgent,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	}
}

// record appends ev to the audit trail. Failures are logged and never fail the request.
func (s *AuthService) record(ctx context.Context, ev domainauth.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.WarnContext(ctx, "failed to record login audit event", "type", ev.Type, "error", err)
	}
}

func clientKey(client domainauth.ClientInfo) string {
	if ip := strings.TrimSpace(client.IP); ip != "" {
		return ip
	}
	return unknownClientKey
}
