package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

func TestAuthMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	m.ObserveLogin(domainauth.ModeSharedCode, ResultSuccess)
	m.ObserveLogin(domainauth.ModeSharedCode, ResultInvalid)
	m.ObserveLogin(domainauth.ModeSharedCode, ResultInvalid)
	m.ObserveSessionCheck(ResultNoSession)
	m.ObserveLogout()

	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues("code", ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.logins.WithLabelValues("code", ResultInvalid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.sessionChecks.WithLabelValues(ResultNoSession)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.logouts), 0)

	count, err := testutil.GatherAndCount(reg, "staffgate_auth_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewAuthMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewAuthMetrics(reg)
	assert.Panics(t, func() { NewAuthMetrics(reg) })
}
