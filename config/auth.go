package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultSessionTTL = 8 * time.Hour
	defaultCookieName = "staff_session"
)

// CredentialMode selects which login shape the deployment accepts.
type CredentialMode string

const (
	// CredentialModeCode accepts a shared access code.
	CredentialModeCode CredentialMode = "code"
	// CredentialModePassword accepts a username and password.
	CredentialModePassword CredentialMode = "password"
)

// UnmarshalText implements encoding.TextUnmarshaler for CredentialMode.
func (m *CredentialMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "code", "password":
		*m = CredentialMode(v)
		return nil
	default:
		return fmt.Errorf("invalid CredentialMode: %q (valid options: code, password)", v)
	}
}

// SameSiteMode is the SameSite attribute applied to the session cookie.
type SameSiteMode string

const (
	SameSiteStrict SameSiteMode = "strict"
	SameSiteLax    SameSiteMode = "lax"
)

// UnmarshalText implements encoding.TextUnmarshaler for SameSiteMode.
func (s *SameSiteMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "strict", "lax":
		*s = SameSiteMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SameSiteMode: %q (valid options: strict, lax)", v)
	}
}

// HTTP converts the mode to its net/http representation.
func (s SameSiteMode) HTTP() http.SameSite {
	if s == SameSiteLax {
		return http.SameSiteLaxMode
	}
	return http.SameSiteStrictMode
}

// StaffAuthConfig contains staff login credentials, the session signing secret and cookie settings.
// Nothing here is validated for completeness at startup: a deployment without usable
// credential material answers auth endpoints with a server error instead.
type StaffAuthConfig struct {
	// Mode determines which credential shape is accepted at login.
	Mode CredentialMode `env:"STAFF_AUTH_MODE" envDefault:"code"`

	// SessionSecret is the explicit HMAC signing secret. Alias: STAFF_AUTH_SECRET.
	SessionSecret string `env:"SESSION_SECRET"`

	// Codes is the comma-separated list of valid access codes. Alias: STAFF_ACCESS_CODE.
	Codes []string `env:"STAFF_CODE" envSeparator:","`

	// Username is compared case-insensitively.
	Username string `env:"STAFF_USERNAME"`

	// Password is the plaintext password. Alias: STAFF_PIN.
	Password string `env:"STAFF_PASSWORD"`

	// PasswordHash is a SHA-256 hex digest or a bcrypt hash of the password.
	// When set it takes precedence over Password.
	PasswordHash string `env:"STAFF_PASSWORD_HASH"`

	// SessionTTL is the absolute lifetime of a session token.
	SessionTTL time.Duration `env:"STAFF_SESSION_TTL" envDefault:"8h"`

	// CookieName is the session cookie name.
	CookieName string `env:"STAFF_COOKIE_NAME" envDefault:"staff_session"`

	// SameSite is the SameSite attribute of the session cookie.
	SameSite SameSiteMode `env:"STAFF_COOKIE_SAMESITE" envDefault:"strict"`
}

type lookupFunc func(key string) (string, bool)

// applyAliases fills unset fields from legacy variable names.
func (a *StaffAuthConfig) applyAliases(lookup lookupFunc) {
	if a.SessionSecret == "" {
		if v, ok := lookup("STAFF_AUTH_SECRET"); ok {
			a.SessionSecret = v
		}
	}
	if len(a.Codes) == 0 {
		if v, ok := lookup("STAFF_ACCESS_CODE"); ok {
			a.Codes = strings.Split(v, ",")
		}
	}
	if a.Password == "" {
		if v, ok := lookup("STAFF_PIN"); ok {
			a.Password = v
		}
	}
}

// Sanitize normalises auth configuration values.
func (a *StaffAuthConfig) Sanitize() {
	if a.Mode == "" {
		a.Mode = CredentialModeCode
	}
	if a.SameSite == "" {
		a.SameSite = SameSiteStrict
	}

	a.SessionSecret = strings.TrimSpace(a.SessionSecret)
	a.Username = strings.TrimSpace(a.Username)
	a.PasswordHash = strings.TrimSpace(a.PasswordHash)
	a.CookieName = strings.TrimSpace(a.CookieName)
	if a.CookieName == "" {
		a.CookieName = defaultCookieName
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = defaultSessionTTL
	}

	codes := make([]string, 0, len(a.Codes))
	for _, c := range a.Codes {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	a.Codes = codes
}

// ThrottleBackend selects where failed-login counters are kept.
type ThrottleBackend string

const (
	ThrottleBackendMemory ThrottleBackend = "memory"
	ThrottleBackendRedis  ThrottleBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for ThrottleBackend.
func (b *ThrottleBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*b = ThrottleBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid ThrottleBackend: %q (valid options: memory, redis)", v)
	}
}

// ThrottleConfig controls the failed-login throttle.
type ThrottleConfig struct {
	Enabled     bool            `env:"LOGIN_THROTTLE_ENABLED"      envDefault:"true"`
	MaxAttempts int             `env:"LOGIN_THROTTLE_MAX_ATTEMPTS" envDefault:"10"`
	Window      time.Duration   `env:"LOGIN_THROTTLE_WINDOW"       envDefault:"15m"`
	Backend     ThrottleBackend `env:"LOGIN_THROTTLE_BACKEND"      envDefault:"memory"`
}

// Sanitize applies guardrails to throttle configuration values.
func (t *ThrottleConfig) Sanitize() {
	if t.MaxAttempts < 1 {
		t.MaxAttempts = 1
	}
	if t.Window < time.Second {
		t.Window = time.Second
	}
	if t.Backend == "" {
		t.Backend = ThrottleBackendMemory
	}
}
