package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Staff credentials, signing secret, cookie settings and login throttling
//   - database.go: Postgres (audit trail) and Redis (throttle) configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode and audit retention configuration
//   - observability.go: Metrics and tracing
type AppConfig struct {
	// IsDev controls development mode behavior (non-Secure cookies, verbose logging).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Staff authentication configuration
	Auth StaffAuthConfig

	// Login throttle configuration
	Throttle ThrottleConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Audit trail configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.applyAliases(os.LookupEnv)
	c.Auth.Sanitize()
	c.Throttle.Sanitize()
	c.HTTP.Sanitize()
	c.Audit.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback since the login pages were historically
// deployed alongside Node tooling.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsAuditPrunerEnabled returns true when the audit retention pruner should run.
// It requires both the service mode and the audit trail itself.
func (c *AppConfig) IsAuditPrunerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeAuditPruner] && c.Audit.Enabled
}

// NeedsPostgres reports whether any enabled feature requires a database connection.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Audit.Enabled
}

// NeedsRedis reports whether any enabled feature requires a Redis connection.
func (c *AppConfig) NeedsRedis() bool {
	return c.Throttle.Enabled && c.Throttle.Backend == ThrottleBackendRedis
}
