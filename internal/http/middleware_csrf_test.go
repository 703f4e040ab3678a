package httpx

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			return c
		}
	}
	return nil
}

func csrfEcho(t *testing.T, cfg CSRFConfig) (http.Handler, *int) {
	t.Helper()
	calls := 0
	return CSRFProtection(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(CSRFToken(r)))
	})), &calls
}

func TestCSRFProtection_IssuesTokenOnSafeRequests(t *testing.T) {
	h, calls := csrfEcho(t, CSRFConfig{Secure: func(*http.Request) bool { return false }})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LoginPagePath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)

	c := csrfCookieFrom(rec)
	require.NotNil(t, c)
	assert.Len(t, c.Value, 43)
	assert.Equal(t, c.Value, rec.Body.String())
	assert.False(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int(DefaultCSRFMaxAge.Seconds()), c.MaxAge)

	again := httptest.NewRequest(http.MethodHead, LoginPagePath, nil)
	again.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, again)
	assert.Nil(t, csrfCookieFrom(rec), "an existing token is reused")
	assert.Equal(t, "existing", rec.Body.String())
}

func TestCSRFProtection_RejectsUnsafeRequests(t *testing.T) {
	const token = "cookie-token"

	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{name: "no cookie no header"},
		{name: "header without cookie", header: token},
		{name: "cookie without header", cookie: token},
		{name: "mismatch", cookie: token, header: "attacker-token"},
		{name: "prefix only", cookie: token, header: token[:6]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, calls := csrfEcho(t, CSRFConfig{})
			req := httptest.NewRequest(http.MethodPost, "/api/staff/logout", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(DefaultCSRFHeaderName, tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Zero(t, *calls)
			assert.JSONEq(t, `{"error":"invalid or missing CSRF token","code":"forbidden"}`, rec.Body.String())
			assert.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestCSRFProtection_AcceptsHeaderOrFormField(t *testing.T) {
	const token = "cookie-token"

	form := url.Values{"csrf_token": {token}, "code": {"248911"}}
	formReq := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(form.Encode()))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("csrf_token", token))
	require.NoError(t, mw.Close())
	multipartReq := httptest.NewRequest(http.MethodPost, "/api/staff/login", &buf)
	multipartReq.Header.Set("Content-Type", mw.FormDataContentType())

	headerReq := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"code":"248911"}`))
	headerReq.Header.Set("Content-Type", "application/json")
	headerReq.Header.Set(DefaultCSRFHeaderName, token)

	for name, req := range map[string]*http.Request{"form": formReq, "multipart": multipartReq, "header": headerReq} {
		t.Run(name, func(t *testing.T) {
			h, calls := csrfEcho(t, CSRFConfig{MaxFormBytes: maxLoginBodyBytes})
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 1, *calls)
			assert.Equal(t, token, rec.Body.String())
		})
	}
}

func TestCSRFProtection_FormBodyCapped(t *testing.T) {
	h, calls := csrfEcho(t, CSRFConfig{MaxFormBytes: 64})
	body := "pad=" + strings.Repeat("x", 256) + "&csrf_token=cookie-token"
	req := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "cookie-token"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, *calls)
}

func TestRouter_LoginAndLogoutRequireCSRF(t *testing.T) {
	env := newTestEnv(t, envOptions{codes: []string{"248911"}})

	login := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"code":"248911"}`))
	login.Header.Set("Content-Type", "application/json")
	rec := env.do(t, login)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, sessionCookieFrom(t, rec))
	assert.Empty(t, env.audit.Events(), "rejected before the login handler runs")

	session := sessionCookieFrom(t, env.login(t, "248911"))
	require.NotNil(t, session)

	logout := httptest.NewRequest(http.MethodPost, "/api/staff/logout", nil)
	logout.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	rec = env.do(t, logout)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, sessionCookieFrom(t, rec), "session cookie is left alone")
}

func TestRouter_PagesEmbedCSRFToken(t *testing.T) {
	env := newTestEnv(t, envOptions{codes: []string{"248911"}})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, LoginPagePath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	c := csrfCookieFrom(rec)
	require.NotNil(t, c)
	assert.Contains(t, rec.Body.String(), `name="csrf_token" value="`+c.Value+`"`)

	session := sessionCookieFrom(t, env.login(t, "248911"))
	require.NotNil(t, session)
	req := httptest.NewRequest(http.MethodGet, DashboardPagePath, nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="`+testCSRFToken+`"`)
}
