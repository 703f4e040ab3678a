package httpx

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

// ProxyTrust decides which forwarding headers are believed.
type ProxyTrust struct {
	// Enabled turns on X-Forwarded-For, Forwarded, X-Real-Ip and X-Forwarded-Proto handling.
	Enabled bool
	// Proxies lists the reverse proxy networks. When empty only the direct peer counts as a
	// proxy, so the right-most forwarded entry is taken as the client.
	Proxies []netip.Prefix
}

// ParseTrustedProxies parses CIDRs or bare addresses. Blank entries are skipped.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func (t ProxyTrust) isProxy(addr netip.Addr) bool {
	for _, p := range t.Proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// peerTrusted reports whether the direct peer may speak for the client.
func (t ProxyTrust) peerTrusted(peer netip.Addr) bool {
	if !t.Enabled || !peer.IsValid() {
		return false
	}
	return len(t.Proxies) == 0 || t.isProxy(peer)
}

// forwardedHTTPS reports whether a trusted proxy says the client connection used HTTPS.
func (t ProxyTrust) forwardedHTTPS(r *http.Request) bool {
	if !t.peerTrusted(remoteAddr(r)) {
		return false
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// ClientInfo extracts the caller's address and user agent. Forwarding headers count only when
// the direct peer is a trusted proxy, and the forwarded chain is read right to left so entries
// prepended by the client cannot choose the address.
func ClientInfo(r *http.Request, trust ProxyTrust) domainauth.ClientInfo {
	ip := clientIP(r, trust)
	s := ""
	if ip.IsValid() {
		s = ip.String()
	}
	return domainauth.ClientInfo{IP: s, UserAgent: r.UserAgent()}
}

func clientIP(r *http.Request, trust ProxyTrust) netip.Addr {
	peer := remoteAddr(r)
	if !trust.peerTrusted(peer) {
		return peer
	}

	chain := parseForwardedFor(r.Header.Get("Forwarded"))
	if len(chain) == 0 {
		chain = parseXForwardedFor(r.Header.Get("X-Forwarded-For"))
	}
	if len(chain) == 0 {
		if xr := parseForwardedIP(r.Header.Get("X-Real-Ip")); xr.IsValid() {
			return xr
		}
		return peer
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if !trust.isProxy(chain[i]) {
			return chain[i]
		}
	}
	return chain[0]
}

func remoteAddr(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

// parseForwardedFor reads the for= parameters of an RFC 7239 Forwarded header.
func parseForwardedFor(header string) []netip.Addr {
	var out []netip.Addr
	for _, element := range strings.Split(header, ",") {
		for _, pair := range strings.Split(element, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "for") {
				continue
			}
			if addr := parseForwardedIP(value); addr.IsValid() {
				out = append(out, addr)
			}
		}
	}
	return out
}

func parseXForwardedFor(header string) []netip.Addr {
	var out []netip.Addr
	for _, part := range strings.Split(header, ",") {
		if addr := parseForwardedIP(part); addr.IsValid() {
			out = append(out, addr)
		}
	}
	return out
}

// parseForwardedIP accepts bare addresses, host:port, bracketed IPv6 and zones.
// "unknown" and obfuscated identifiers yield the zero Addr.
func parseForwardedIP(value string) netip.Addr {
	host := strings.Trim(strings.TrimSpace(value), `"`)
	if host == "" || strings.EqualFold(host, "unknown") {
		return netip.Addr{}
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			host = host[1:end]
		}
	} else if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if zone := strings.Index(host, "%"); zone != -1 {
		host = host[:zone]
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}
