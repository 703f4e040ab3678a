package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalora/staffgate/config"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testApp(codes ...string) *app {
	return &app{
		loadConfig: func() (config.AppConfig, error) {
			return config.AppConfig{Auth: config.StaffAuthConfig{
				Mode:       config.CredentialModeCode,
				Codes:      codes,
				SessionTTL: 8 * time.Hour,
			}}, nil
		},
		now:    func() time.Time { return testNow },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func execute(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, testApp(), "hunter2\n", "hash-password", "--kind", "sha256")
	require.NoError(t, err)
	assert.Equal(t, "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7\n", out)

	out, err = execute(t, testApp(), "hunter2", "hash-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$2a$"), out)

	_, err = execute(t, testApp(), "", "hash-password")
	require.Error(t, err)
}

func TestDeriveSecret(t *testing.T) {
	out, err := execute(t, testApp("248911"), "", "derive-secret")
	require.NoError(t, err)
	assert.Contains(t, out, "source:      derived")
	assert.Contains(t, out, "fingerprint: ")
	assert.NotContains(t, out, "secret:")

	out, err = execute(t, testApp("248911"), "", "derive-secret", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "secret:")

	_, err = execute(t, testApp(), "", "derive-secret")
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)
}

func TestMintThenVerifyToken(t *testing.T) {
	a := testApp("248911")

	token, err := execute(t, a, "", "mint-token", "--subject", "code:2", "--ttl", "1h")
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	require.Equal(t, 1, strings.Count(token, "."))

	out, err := execute(t, a, "", "verify-token", token)
	require.NoError(t, err)
	var p domainauth.Principal
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "code:2", p.Subject)
	assert.True(t, p.ExpiresAt.Equal(testNow.Add(time.Hour)))

	_, err = execute(t, testApp("731604"), "", "verify-token", token)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)
}

func TestVerifyToken_RequiresArgument(t *testing.T) {
	_, err := execute(t, testApp("1"), "", "verify-token")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, testApp(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
