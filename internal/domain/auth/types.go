package auth

// Package auth contains domain-level types for staff authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"strings"
	"time"
)

// TokenVersion is the only session token scheme version currently minted and accepted.
const TokenVersion = 1

// Mode selects which credential shape a deployment accepts at login.
type Mode string

const (
	// ModeSharedCode accepts one of several configured access codes.
	ModeSharedCode Mode = "code"
	// ModeUsernamePassword accepts a username (or email) and password (or pin).
	ModeUsernamePassword Mode = "password"
)

// Valid reports whether m is a known credential mode.
func (m Mode) Valid() bool {
	return m == ModeSharedCode || m == ModeUsernamePassword
}

// Principal is the authenticated identity carried by a session token.
// It is immutable once minted; ExpiresAt is always after IssuedAt.
type Principal struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Version   int       `json:"version"`
	// TokenID uniquely identifies the minted token (not used for decisions).
	TokenID string `json:"-"`
}

// NewPrincipal builds a Principal valid for ttl starting at now. Both timestamps are truncated
// to the millisecond, the resolution a session token carries.
func NewPrincipal(subject string, now time.Time, ttl time.Duration) (Principal, error) {
	now = now.Truncate(time.Millisecond)
	p := Principal{
		Subject:   strings.TrimSpace(subject),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Version:   TokenVersion,
	}
	if err := p.Validate(); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Validate checks the Principal invariants.
func (p Principal) Validate() error {
	if p.Subject == "" {
		return errors.New("principal subject is required")
	}
	if !p.ExpiresAt.After(p.IssuedAt) {
		return errors.New("principal must expire after it is issued")
	}
	if p.Version != TokenVersion {
		return errors.New("unsupported principal version")
	}
	return nil
}

// ExpiredAt reports whether the principal is no longer valid at now.
// Expiry is absolute: validity ends exactly at ExpiresAt.
func (p Principal) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Credentials is the raw login submission. Which fields are used depends on the Mode.
type Credentials struct {
	Code     string
	Username string
	Password string
}

// Sanitized returns a copy with surrounding whitespace removed from every field
// except Password, which is compared verbatim.
func (c Credentials) Sanitized() Credentials {
	return Credentials{
		Code:     strings.TrimSpace(c.Code),
		Username: strings.TrimSpace(c.Username),
		Password: c.Password,
	}
}
