package config

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request host (host-only cookie).
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// TrustProxyHeaders enables X-Forwarded-For / X-Forwarded-Proto handling.
	// Only enable behind a proxy that overwrites these headers.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" envDefault:"false"`

	// TrustedProxies lists the reverse proxy CIDRs or addresses. Forwarded entries from these
	// networks are skipped when finding the client address. Empty trusts only the direct peer.
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" envSeparator:","`

	// RejectedCookieDomain holds a configured domain that Sanitize discarded.
	RejectedCookieDomain string
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}

	domain := strings.ToLower(strings.TrimSpace(h.CookieDomain))
	domain = strings.TrimPrefix(domain, ".")
	h.CookieDomain = domain
	if domain != "" && isPublicSuffix(domain) {
		// Browsers refuse cookies scoped to a public suffix; fall back to host-only.
		h.RejectedCookieDomain = domain
		h.CookieDomain = ""
	}
}

func isPublicSuffix(domain string) bool {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix == domain
}
