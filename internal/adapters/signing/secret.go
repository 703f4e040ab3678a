// Package signing resolves the session signing secret and mints/verifies signed session tokens.
package signing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vitalora/staffgate/internal/data/cryptoutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

// derivationNamespace prefixes credential material before hashing it into a fallback secret.
// Changing it invalidates every session issued by deployments relying on the fallback.
const derivationNamespace = "vitalora::"

// placeholderSecrets are shipped example values that must never sign real sessions.
var placeholderSecrets = map[string]struct{}{
	"dev-secret-change-me":    {},
	"change-me-in-production": {},
}

// SecretSource records where a resolved secret came from.
type SecretSource string

const (
	SourceExplicit SecretSource = "explicit"
	SourceDerived  SecretSource = "derived"
)

// Secret is the resolved HMAC key. Key must never be logged; use Fingerprint.
type Secret struct {
	Key    []byte
	Source SecretSource
}

// Fingerprint returns a short identifier of the key that is safe to log.
func (s Secret) Fingerprint() string {
	return cryptoutil.Fingerprint(s.Key)
}

// SecretMaterial is the configuration consulted when resolving the secret.
type SecretMaterial struct {
	Explicit     string
	Mode         domainauth.Mode
	Codes        []string
	Password     string
	PasswordHash string
}

// ResolveSecret picks the explicit secret when one is configured and is not a placeholder,
// otherwise derives hex(sha256(namespace + credential material)). Identical material always
// yields a byte-identical secret. It returns ErrNoSigningSecret when nothing usable is configured.
func ResolveSecret(m SecretMaterial) (Secret, error) {
	explicit := strings.TrimSpace(m.Explicit)
	if explicit != "" {
		if _, placeholder := placeholderSecrets[explicit]; !placeholder {
			return Secret{Key: []byte(explicit), Source: SourceExplicit}, nil
		}
	}

	material := derivationMaterial(m)
	if material == "" {
		return Secret{}, domainauth.ErrNoSigningSecret
	}
	derived := cryptoutil.SHA256Hex(derivationNamespace + material)
	return Secret{Key: []byte(derived), Source: SourceDerived}, nil
}

func derivationMaterial(m SecretMaterial) string {
	switch m.Mode {
	case domainauth.ModeUsernamePassword:
		if h := strings.TrimSpace(m.PasswordHash); h != "" {
			return h
		}
		return m.Password
	default:
		for _, c := range m.Codes {
			if trimmed := strings.TrimSpace(c); trimmed != "" {
				return trimmed
			}
		}
		return ""
	}
}

// SecretResolver memoizes ResolveSecret for the lifetime of the process.
type SecretResolver struct {
	resolve func() (Secret, error)
}

// NewSecretResolver returns a resolver over a snapshot of m.
func NewSecretResolver(m SecretMaterial) *SecretResolver {
	m.Codes = append([]string(nil), m.Codes...)
	return &SecretResolver{
		resolve: sync.OnceValues(func() (Secret, error) {
			return ResolveSecret(m)
		}),
	}
}

// Secret returns the resolved secret, computing it on first use.
func (r *SecretResolver) Secret() (Secret, error) {
	s, err := r.resolve()
	if err != nil {
		return Secret{}, fmt.Errorf("resolve signing secret: %w", err)
	}
	return s, nil
}
