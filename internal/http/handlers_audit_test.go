package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	mockauth "github.com/vitalora/staffgate/internal/mocks/auth"
)

func seedAudit(t *testing.T, log *mockauth.MemoryAuditLog, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range n {
		require.NoError(t, log.Record(context.Background(), domainauth.AuditEvent{
			Type:       domainauth.AuditLoginFailed,
			Reason:     "invalid_credentials",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func listAudit(t *testing.T, h *AuditHandlers, query string) (*httptest.ResponseRecorder, []domainauth.AuditEvent) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/staff/audit"+query, nil))
	var events []domainauth.AuditEvent
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	}
	return rec, events
}

func TestAuditHandlers_List(t *testing.T) {
	log := &mockauth.MemoryAuditLog{}
	seedAudit(t, log, 60)
	h := &AuditHandlers{Reader: log}

	rec, events := listAudit(t, h, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, events, defaultAuditLimit)

	_, events = listAudit(t, h, "?limit=5")
	assert.Len(t, events, 5)

	_, events = listAudit(t, h, "?limit=1000")
	assert.Len(t, events, 60)
}

func TestAuditHandlers_InvalidLimit(t *testing.T) {
	h := &AuditHandlers{Reader: &mockauth.MemoryAuditLog{}}

	for _, q := range []string{"?limit=0", "?limit=-3", "?limit=ten"} {
		rec, _ := listAudit(t, h, q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, rec.Body.String(), `"code":"validation"`)
		assert.Contains(t, rec.Body.String(), `"field":"limit"`)
	}
}

func TestAuditHandlers_Disabled(t *testing.T) {
	rec, events := listAudit(t, &AuditHandlers{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, events)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAuditHandlers_ReaderError(t *testing.T) {
	log := &mockauth.MemoryAuditLog{Err: errors.New("connection refused")}
	rec, _ := listAudit(t, &AuditHandlers{Reader: log, Logger: discardLogger()}, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestParseAuditLimit(t *testing.T) {
	n, err := parseAuditLimit("")
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	n, err = parseAuditLimit("201")
	require.NoError(t, err)
	assert.Equal(t, maxAuditLimit, n)
}

func TestAuditRoute_RequiresSession(t *testing.T) {
	env := newTestEnv(t, envOptions{codes: []string{"248911"}})
	cookie := sessionCookieFrom(t, env.login(t, "248911"))
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/staff/audit?limit=10", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	rec := env.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var events []domainauth.AuditEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, domainauth.AuditLoginSucceeded, events[0].Type)
}
