package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name       string
		material   SecretMaterial
		wantKey    string
		wantSource SecretSource
		wantErr    bool
	}{
		{
			name:       "explicit secret used verbatim",
			material:   SecretMaterial{Explicit: "a-real-secret", Codes: []string{"248911"}},
			wantKey:    "a-real-secret",
			wantSource: SourceExplicit,
		},
		{
			name:       "placeholder secret falls back to first code",
			material:   SecretMaterial{Explicit: "dev-secret-change-me", Mode: domainauth.ModeSharedCode, Codes: []string{"248911", "111111"}},
			wantKey:    "c3ae502f1100dd3e1b516e6600e070e6e735e6090a7ace846fc1c54b7e5bc686",
			wantSource: SourceDerived,
		},
		{
			name:       "blank codes are skipped",
			material:   SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: []string{" ", "248911"}},
			wantKey:    "c3ae502f1100dd3e1b516e6600e070e6e735e6090a7ace846fc1c54b7e5bc686",
			wantSource: SourceDerived,
		},
		{
			name:       "password mode derives from plaintext password",
			material:   SecretMaterial{Explicit: "change-me-in-production", Mode: domainauth.ModeUsernamePassword, Password: "hunter2"},
			wantKey:    "c522412c4597f6d08e4426add3d69d6b0c90404ee4231ac466cc014544ce7feb",
			wantSource: SourceDerived,
		},
		{
			name:     "nothing configured",
			material: SecretMaterial{Mode: domainauth.ModeSharedCode},
			wantErr:  true,
		},
		{
			name:     "password mode ignores codes",
			material: SecretMaterial{Mode: domainauth.ModeUsernamePassword, Codes: []string{"248911"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ResolveSecret(tt.material)
			if tt.wantErr {
				require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, string(s.Key))
			assert.Equal(t, tt.wantSource, s.Source)
		})
	}
}

func TestResolveSecret_PasswordHashPreferred(t *testing.T) {
	withHash, err := ResolveSecret(SecretMaterial{Mode: domainauth.ModeUsernamePassword, Password: "hunter2", PasswordHash: "abc"})
	require.NoError(t, err)
	plain, err := ResolveSecret(SecretMaterial{Mode: domainauth.ModeUsernamePassword, Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEqual(t, withHash.Key, plain.Key)
}

func TestResolveSecret_Deterministic(t *testing.T) {
	m := SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: []string{"248911"}}
	a, err := ResolveSecret(m)
	require.NoError(t, err)
	b, err := ResolveSecret(m)
	require.NoError(t, err)
	assert.Equal(t, a.Key, b.Key)

	changed, err := ResolveSecret(SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: []string{"000001"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, changed.Key)
}

func TestSecretResolver_Memoizes(t *testing.T) {
	codes := []string{"248911"}
	r := NewSecretResolver(SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: codes})

	first, err := r.Secret()
	require.NoError(t, err)

	// Mutating the caller's slice after construction must not affect the resolver.
	codes[0] = "999999"
	second, err := r.Secret()
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)
	assert.Len(t, first.Fingerprint(), 8)
}

func TestSecretResolver_ErrorIsStable(t *testing.T) {
	r := NewSecretResolver(SecretMaterial{})
	_, err := r.Secret()
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)
	_, err = r.Secret()
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)
}
