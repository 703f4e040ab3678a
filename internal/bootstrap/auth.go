package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/adapters/credentials"
	redisadapter "github.com/vitalora/staffgate/internal/adapters/redis"
	"github.com/vitalora/staffgate/internal/adapters/signing"
	"github.com/vitalora/staffgate/internal/adapters/throttle"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
	"github.com/vitalora/staffgate/internal/service"
)

// AuthConfig contains the dependencies for building the staff auth service.
type AuthConfig struct {
	Auth     config.StaffAuthConfig
	Throttle config.ThrottleConfig
	// RedisClient backs the throttle when the redis backend is selected.
	RedisClient redis.UniversalClient
	Support     AuthSupportDeps
	Logger      *slog.Logger
}

// AuthSupportDeps carries the optional audit and metrics collaborators.
type AuthSupportDeps struct {
	Audit   ports.AuditRecorder
	Metrics ports.AuthMetrics
}

// SecretMaterial maps staff auth configuration onto the signing secret inputs.
func SecretMaterial(cfg config.StaffAuthConfig) signing.SecretMaterial {
	return signing.SecretMaterial{
		Explicit:     cfg.SessionSecret,
		Mode:         domainauth.Mode(cfg.Mode),
		Codes:        cfg.Codes,
		Password:     cfg.Password,
		PasswordHash: cfg.PasswordHash,
	}
}

// BuildCredentialVerifier selects the verifier for the configured mode.
//
//nolint:ireturn // callers only depend on the port.
func BuildCredentialVerifier(cfg config.StaffAuthConfig) (ports.CredentialVerifier, error) {
	return credentials.New(credentials.Options{
		Mode:         domainauth.Mode(cfg.Mode),
		Codes:        cfg.Codes,
		Username:     cfg.Username,
		Password:     cfg.Password,
		PasswordHash: cfg.PasswordHash,
	})
}

// BuildAuthService wires verifier, codec, throttle, audit and metrics into an AuthService.
// Missing credential material is not an error here: the service starts and answers the
// staff endpoints with a server error until the deployment is fixed.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := BuildCredentialVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("build credential verifier: %w", err)
	}

	resolver := signing.NewSecretResolver(SecretMaterial(cfg.Auth))
	logSecretStatus(logger, resolver)

	loginThrottle, err := buildThrottle(cfg.Throttle, cfg.RedisClient)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Core: service.AuthCore{
			Verifier: verifier,
			Codec:    signing.NewCodec(signing.CodecOptions{Secrets: resolver}),
			Session:  service.SessionPolicy{TTL: cfg.Auth.SessionTTL},
		},
		Support: service.AuthSupport{
			Throttle: loginThrottle,
			Audit:    cfg.Support.Audit,
			Metrics:  cfg.Support.Metrics,
		},
		Logger: logger,
	})
}

// logSecretStatus reports where the signing secret comes from. The secret itself is never logged.
func logSecretStatus(logger *slog.Logger, resolver *signing.SecretResolver) {
	secret, err := resolver.Secret()
	if err != nil {
		if errors.Is(err, domainauth.ErrNoSigningSecret) {
			logger.Error("no session signing secret and no credential material configured; staff login will fail")
			return
		}
		logger.Error("resolve session signing secret", "error", err)
		return
	}
	logger.Info("session signing secret resolved",
		"source", secret.Source,
		"fingerprint", secret.Fingerprint(),
	)
	if secret.Source == signing.SourceDerived {
		logger.Warn("session signing secret is derived from the staff credential; set SESSION_SECRET to decouple them")
	}
}

//nolint:ireturn // the throttle backend is selected at runtime.
func buildThrottle(cfg config.ThrottleConfig, client redis.UniversalClient) (ports.LoginThrottle, error) {
	if !cfg.Enabled {
		return throttle.Noop{}, nil
	}
	switch cfg.Backend {
	case config.ThrottleBackendRedis:
		if client == nil {
			return nil, errors.New("redis throttle backend selected but no redis client is configured")
		}
		return redisadapter.NewLoginThrottle(client, redisadapter.LoginThrottleOptions{
			MaxAttempts: cfg.MaxAttempts,
			Window:      cfg.Window,
		}), nil
	default:
		return throttle.NewMemory(throttle.MemoryOptions{
			MaxAttempts: cfg.MaxAttempts,
			Window:      cfg.Window,
		}), nil
	}
}
