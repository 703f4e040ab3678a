package httpx

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookie_RoundTrip(t *testing.T) {
	c := SessionCookie{TTL: 12 * time.Hour}
	token := "eyJzdWIiOiJjb2RlOjEifQ.c2lnbmF0dXJlLWJ5dGVz-_"

	rec := httptest.NewRecorder()
	c.Attach(rec, httptest.NewRequest(http.MethodPost, "/", nil), token)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "theme=dark; "+rec.Header().Get("Set-Cookie"))
	got, ok := c.Extract(req)
	require.True(t, ok)
	assert.Equal(t, token, got)
}

func TestSessionCookie_Attributes(t *testing.T) {
	c := SessionCookie{Name: "sess", TTL: 90 * time.Minute, SameSite: http.SameSiteLaxMode, Domain: "vitalora.nl"}

	rec := httptest.NewRecorder()
	c.Attach(rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	got := cookies[0]
	assert.Equal(t, "sess", got.Name)
	assert.Equal(t, 5400, got.MaxAge)
	assert.True(t, got.HttpOnly)
	assert.True(t, got.Secure)
	assert.Equal(t, "/", got.Path)
	assert.Equal(t, "vitalora.nl", got.Domain)
	assert.Equal(t, http.SameSiteLaxMode, got.SameSite)
}

func TestSessionCookie_DefaultsToStrict(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionCookie{TTL: time.Hour}.Attach(rec, httptest.NewRequest(http.MethodPost, "/", nil), "tok")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "SameSite=Strict")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), DefaultSessionCookieName+"=tok")
}

func TestSessionCookie_SecureInDev(t *testing.T) {
	untrusted := SessionCookie{TTL: time.Hour, Dev: true}
	trusted := SessionCookie{TTL: time.Hour, Dev: true, Proxy: ProxyTrust{Enabled: true}}
	listed := SessionCookie{TTL: time.Hour, Dev: true, Proxy: ProxyTrust{
		Enabled: true,
		Proxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}}

	forwarded := func(remote, proto string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = remote
		r.Header.Set("X-Forwarded-Proto", proto)
		return r
	}
	direct := httptest.NewRequest(http.MethodPost, "/", nil)
	direct.TLS = &tls.ConnectionState{}

	tests := []struct {
		name   string
		cookie SessionCookie
		req    *http.Request
		want   bool
	}{
		{name: "plain http", cookie: untrusted, req: httptest.NewRequest(http.MethodPost, "/", nil), want: false},
		{name: "forwarded proto ignored without proxy trust", cookie: untrusted, req: forwarded("192.0.2.1:1234", "https"), want: false},
		{name: "behind trusted tls proxy", cookie: trusted, req: forwarded("192.0.2.1:1234", "https"), want: true},
		{name: "proxy chain lists https", cookie: trusted, req: forwarded("192.0.2.1:1234", "http, https"), want: true},
		{name: "peer outside trusted proxies", cookie: listed, req: forwarded("192.0.2.1:1234", "https"), want: false},
		{name: "peer inside trusted proxies", cookie: listed, req: forwarded("10.1.2.3:443", "https"), want: true},
		{name: "direct tls", cookie: untrusted, req: direct, want: true},
		{name: "production always secure", cookie: SessionCookie{TTL: time.Hour}, req: httptest.NewRequest(http.MethodPost, "/", nil), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.cookie.Attach(rec, tt.req, "tok")
			assert.Equal(t, tt.want, rec.Result().Cookies()[0].Secure)
		})
	}
}

func TestSessionCookie_Clear(t *testing.T) {
	c := SessionCookie{TTL: time.Hour}
	rec := httptest.NewRecorder()
	c.Clear(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	header := rec.Header().Get("Set-Cookie")
	assert.Contains(t, header, "staff_session=;")
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "HttpOnly")
}

func TestSessionCookie_ExtractMissing(t *testing.T) {
	c := SessionCookie{}

	for _, header := range []string{"", "other=1", "===", "staff_session=", "; ;"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Cookie", header)
		}
		_, ok := c.Extract(req)
		assert.False(t, ok, "Cookie: %q", header)
	}
}
