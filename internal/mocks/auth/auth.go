// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialVerifier = (*StubVerifier)(nil)
	_ ports.TokenCodec         = (*MemoryCodec)(nil)
	_ ports.AuditRecorder      = (*MemoryAuditLog)(nil)
	_ ports.AuditReader        = (*MemoryAuditLog)(nil)
	_ ports.AuthMetrics        = (*RecordingMetrics)(nil)
)

// StubVerifier accepts a fixed set of codes, or delegates to VerifyFunc when set.
type StubVerifier struct {
	VerifyFunc func(ctx context.Context, creds domainauth.Credentials) (string, error)

	// Subjects maps an accepted code to the subject it logs in as.
	Subjects map[string]string
	ModeVal  domainauth.Mode
}

// NewStubVerifier accepts each code in codes as subject "code:<n>".
func NewStubVerifier(codes ...string) *StubVerifier {
	subjects := make(map[string]string, len(codes))
	for i, c := range codes {
		subjects[c] = fmt.Sprintf("code:%d", i+1)
	}
	return &StubVerifier{Subjects: subjects, ModeVal: domainauth.ModeSharedCode}
}

func (v *StubVerifier) Mode() domainauth.Mode {
	if v.ModeVal == "" {
		return domainauth.ModeSharedCode
	}
	return v.ModeVal
}

func (v *StubVerifier) Verify(ctx context.Context, creds domainauth.Credentials) (string, error) {
	if v.VerifyFunc != nil {
		return v.VerifyFunc(ctx, creds)
	}
	if creds.Code == "" {
		return "", domainauth.ErrMissingCredentials
	}
	subject, ok := v.Subjects[creds.Code]
	if !ok {
		return "", domainauth.ErrInvalidCredentials
	}
	return subject, nil
}

// MemoryCodec issues opaque counter tokens and remembers their principals.
// Revoke simulates a secret rotation for a single token.
type MemoryCodec struct {
	MintErr error // when set, Mint fails with it
	Now     func() (nowUnixMilli int64)

	mu     sync.Mutex
	tokens map[string]domainauth.Principal
	seq    int
}

// NewMemoryCodec creates an empty MemoryCodec.
func NewMemoryCodec() *MemoryCodec {
	return &MemoryCodec{tokens: make(map[string]domainauth.Principal)}
}

func (c *MemoryCodec) Mint(p domainauth.Principal) (string, error) {
	if c.MintErr != nil {
		return "", c.MintErr
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = make(map[string]domainauth.Principal)
	}
	c.seq++
	token := fmt.Sprintf("tok-%d", c.seq)
	c.tokens[token] = p
	return token, nil
}

func (c *MemoryCodec) Verify(token string) (domainauth.Principal, error) {
	if c.MintErr != nil && errors.Is(c.MintErr, domainauth.ErrNoSigningSecret) {
		return domainauth.Principal{}, c.MintErr
	}
	c.mu.Lock()
	p, ok := c.tokens[token]
	c.mu.Unlock()
	if !ok {
		return domainauth.Principal{}, fmt.Errorf("%w: unknown token", domainauth.ErrInvalidToken)
	}
	if c.Now != nil && c.Now() >= p.ExpiresAt.UnixMilli() {
		return domainauth.Principal{}, fmt.Errorf("%w: expired", domainauth.ErrInvalidToken)
	}
	return p, nil
}

// Revoke makes token unverifiable.
func (c *MemoryCodec) Revoke(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, token)
}

// MemoryAuditLog keeps audit events in memory. Err, when set, is returned by Record and ListRecent.
type MemoryAuditLog struct {
	Err error

	mu     sync.Mutex
	events []domainauth.AuditEvent
}

func (l *MemoryAuditLog) Record(_ context.Context, ev domainauth.AuditEvent) error {
	if l.Err != nil {
		return l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

// ListRecent returns the newest limit events first.
func (l *MemoryAuditLog) ListRecent(_ context.Context, limit int) ([]domainauth.AuditEvent, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domainauth.AuditEvent, 0, min(limit, len(l.events)))
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

// Events returns a copy of all recorded events in insertion order.
func (l *MemoryAuditLog) Events() []domainauth.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domainauth.AuditEvent(nil), l.events...)
}

// Types returns the recorded event types in insertion order.
func (l *MemoryAuditLog) Types() []domainauth.AuditEventType {
	events := l.Events()
	out := make([]domainauth.AuditEventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

// RecordingMetrics counts observations by label.
type RecordingMetrics struct {
	mu            sync.Mutex
	Logins        map[string]int // "<mode>/<result>"
	SessionChecks map[string]int
	Logouts       int
}

func (m *RecordingMetrics) ObserveLogin(mode domainauth.Mode, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Logins == nil {
		m.Logins = make(map[string]int)
	}
	m.Logins[string(mode)+"/"+result]++
}

func (m *RecordingMetrics) ObserveSessionCheck(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionChecks == nil {
		m.SessionChecks = make(map[string]int)
	}
	m.SessionChecks[result]++
}

func (m *RecordingMetrics) ObserveLogout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logouts++
}
