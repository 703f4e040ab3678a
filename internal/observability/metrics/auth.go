// Package metrics exposes Prometheus instrumentation for staff authentication.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

// Result labels shared by login and session check counters.
const (
	ResultSuccess       = "success"
	ResultInvalid       = "invalid"
	ResultMissing       = "missing"
	ResultThrottled     = "throttled"
	ResultMisconfigured = "misconfigured"
	ResultError         = "error"
	ResultNoSession     = "no_session"
)

const namespace = "staffgate"

var (
	_ ports.AuthMetrics = (*AuthMetrics)(nil)
	_ ports.AuthMetrics = Noop{}
)

// AuthMetrics records login, session check and logout counts.
type AuthMetrics struct {
	logins        *prometheus.CounterVec
	sessionChecks *prometheus.CounterVec
	logouts       prometheus.Counter
}

// NewAuthMetrics registers the auth collectors with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AuthMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Staff login attempts by credential mode and result.",
		}, []string{"mode", "result"}),
		sessionChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_checks_total",
			Help:      "Session cookie verifications by result.",
		}, []string{"result"}),
		logouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Staff logouts.",
		}),
	}
}

// ObserveLogin implements ports.AuthMetrics.
func (m *AuthMetrics) ObserveLogin(mode domainauth.Mode, result string) {
	m.logins.WithLabelValues(string(mode), result).Inc()
}

// ObserveSessionCheck implements ports.AuthMetrics.
func (m *AuthMetrics) ObserveSessionCheck(result string) {
	m.sessionChecks.WithLabelValues(result).Inc()
}

// ObserveLogout implements ports.AuthMetrics.
func (m *AuthMetrics) ObserveLogout() {
	m.logouts.Inc()
}

// Noop discards all observations.
type Noop struct{}

func (Noop) ObserveLogin(domainauth.Mode, string) {}
func (Noop) ObserveSessionCheck(string)           {}
func (Noop) ObserveLogout()                       {}
