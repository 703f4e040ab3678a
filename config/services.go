package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeAuditPruner runs the scheduled audit retention pruner.
	ServiceModeAuditPruner ServiceMode = "audit-pruner"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAuditPruner,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeAuditPruner:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, audit-pruner)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

const (
	defaultAuditRetention     = 2160 * time.Hour // 90 days
	defaultAuditPruneSchedule = "17 3 * * *"
)

// AuditConfig controls the Postgres-backed login audit trail and its retention.
type AuditConfig struct {
	// Enabled turns on audit recording. Requires Postgres.
	Enabled bool `env:"AUDIT_ENABLED" envDefault:"false"`

	// Retention is how long audit rows are kept.
	Retention time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`

	// PruneSchedule is a standard 5-field cron expression for the retention pruner.
	PruneSchedule string `env:"AUDIT_PRUNE_SCHEDULE" envDefault:"17 3 * * *"`
}

// Sanitize applies guardrails to audit configuration values.
func (a *AuditConfig) Sanitize() {
	if a.Retention <= 0 {
		a.Retention = defaultAuditRetention
	}
	if a.Retention < 24*time.Hour {
		a.Retention = 24 * time.Hour
	}
	a.PruneSchedule = strings.TrimSpace(a.PruneSchedule)
	if a.PruneSchedule == "" {
		a.PruneSchedule = defaultAuditPruneSchedule
	}
}
