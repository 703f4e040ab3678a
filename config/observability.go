package config

import "strings"

const defaultObservabilityName = "staffgate"

// ObservabilityConfig groups configuration that controls metrics and tracing.
type ObservabilityConfig struct {
	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// TracingEndpoint is the OTLP gRPC collector address. Empty disables tracing.
	TracingEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// ServiceName is reported as the OpenTelemetry service.name resource attribute.
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"staffgate"`
}

// Sanitize normalises observability configuration values.
func (c *ObservabilityConfig) Sanitize() {
	c.TracingEndpoint = strings.TrimSpace(c.TracingEndpoint)
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	if c.ServiceName == "" {
		c.ServiceName = defaultObservabilityName
	}
}

// TracingEnabled returns true when spans are exported.
func (c *ObservabilityConfig) TracingEnabled() bool {
	return c.TracingEndpoint != ""
}
