package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrincipal(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	p, err := NewPrincipal("  alice ", now, 8*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Subject)
	assert.Equal(t, now, p.IssuedAt)
	assert.Equal(t, now.Add(8*time.Hour), p.ExpiresAt)
	assert.Equal(t, TokenVersion, p.Version)

	_, err = NewPrincipal("", now, time.Hour)
	require.Error(t, err)

	_, err = NewPrincipal("bob", now, 0)
	require.Error(t, err)
}

func TestNewPrincipal_TruncatesToMillisecond(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 987654321, time.UTC)

	p, err := NewPrincipal("alice", now, 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 987000000, time.UTC), p.IssuedAt)
	assert.Equal(t, p.IssuedAt.Add(90*time.Minute), p.ExpiresAt)
	assert.Zero(t, p.IssuedAt.Nanosecond()%int(time.Millisecond))
}

func TestPrincipal_ExpiredAt(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p, err := NewPrincipal("alice", now, time.Minute)
	require.NoError(t, err)

	assert.False(t, p.ExpiredAt(now))
	assert.False(t, p.ExpiredAt(now.Add(59*time.Second)))
	assert.True(t, p.ExpiredAt(now.Add(time.Minute)))
	assert.True(t, p.ExpiredAt(now.Add(time.Hour)))
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, ModeSharedCode.Valid())
	assert.True(t, ModeUsernamePassword.Valid())
	assert.False(t, Mode("oauth").Valid())
}

func TestCredentials_Sanitized(t *testing.T) {
	c := Credentials{Code: " 248911 ", Username: " Staff ", Password: " pw "}.Sanitized()
	assert.Equal(t, "248911", c.Code)
	assert.Equal(t, "Staff", c.Username)
	assert.Equal(t, " pw ", c.Password)
}
