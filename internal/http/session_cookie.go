package httpx

import (
	"net/http"
	"time"
)

// DefaultSessionCookieName is used when SessionCookie.Name is empty.
const DefaultSessionCookieName = "staff_session"

// SessionCookie carries the session token between browser and server.
type SessionCookie struct {
	Name     string
	TTL      time.Duration
	SameSite http.SameSite
	// Domain is empty for a host-only cookie.
	Domain string
	// Dev drops the Secure attribute for plain-HTTP requests on localhost.
	Dev bool
	// Proxy decides whether X-Forwarded-Proto may restore Secure in Dev.
	Proxy ProxyTrust
}

func (c SessionCookie) name() string {
	if c.Name == "" {
		return DefaultSessionCookieName
	}
	return c.Name
}

func (c SessionCookie) sameSite() http.SameSite {
	if c.SameSite == 0 || c.SameSite == http.SameSiteDefaultMode {
		return http.SameSiteStrictMode
	}
	return c.SameSite
}

// secure reports whether the Secure attribute applies to a cookie set in response to r.
func (c SessionCookie) secure(r *http.Request) bool {
	return !c.Dev || r.TLS != nil || c.Proxy.forwardedHTTPS(r)
}

// Attach sets the session cookie. Max-Age is the TTL in whole seconds.
func (c SessionCookie) Attach(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: c.sameSite(),
	})
}

// Extract returns the session token carried by r. A missing header, a missing cookie among
// several and unparsable cookie pairs all yield ("", false).
func (c SessionCookie) Extract(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name())
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear expires the session cookie on the client, mirroring the attributes used by Attach.
func (c SessionCookie) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1, // serialized as Max-Age=0
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: c.sameSite(),
	})
}
