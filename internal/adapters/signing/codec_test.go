package signing

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalora/staffgate/internal/data/cryptoutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

type staticSecret struct {
	key string
	err error
}

func (s staticSecret) Secret() (Secret, error) {
	if s.err != nil {
		return Secret{}, s.err
	}
	return Secret{Key: []byte(s.key), Source: SourceExplicit}, nil
}

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(key string, now time.Time) *Codec {
	return NewCodec(CodecOptions{
		Secrets: staticSecret{key: key},
		Now:     func() time.Time { return now },
	})
}

func mustPrincipal(t *testing.T, subject string, ttl time.Duration) domainauth.Principal {
	t.Helper()
	p, err := domainauth.NewPrincipal(subject, testNow, ttl)
	require.NoError(t, err)
	return p
}

// signRaw builds a correctly signed token around an arbitrary payload.
func signRaw(t *testing.T, key string, raw string) string {
	t.Helper()
	signer, err := cryptoutil.NewHMACSigner([]byte(key))
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString([]byte(raw))
	return body + "." + base64.RawURLEncoding.EncodeToString(signer.Sign([]byte(body)))
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec("secret-a", testNow.Add(time.Hour))
	p := mustPrincipal(t, "vitalora", 8*time.Hour)

	token, err := codec.Mint(p)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(token, "."))

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p.Subject, got.Subject)
	assert.True(t, p.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, p.IssuedAt.Equal(got.IssuedAt))
	assert.Equal(t, domainauth.TokenVersion, got.Version)
	assert.NotEmpty(t, got.TokenID)
}

func TestCodec_RoundTripPreservesSubMillisecondPrincipal(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.UTC)
	p, err := domainauth.NewPrincipal("vitalora", issued, 8*time.Hour)
	require.NoError(t, err)
	p.TokenID = "jti-1"

	codec := newTestCodec("secret-a", issued)
	token, err := codec.Mint(p)
	require.NoError(t, err)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCodec_MintIsDeterministicForSameTokenID(t *testing.T) {
	codec := newTestCodec("secret-a", testNow)
	p := mustPrincipal(t, "vitalora", time.Hour)
	p.TokenID = "fixed"

	a, err := codec.Mint(p)
	require.NoError(t, err)
	b, err := codec.Mint(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodec_TamperDetection(t *testing.T) {
	codec := newTestCodec("secret-a", testNow)
	token, err := codec.Mint(mustPrincipal(t, "vitalora", time.Hour))
	require.NoError(t, err)

	for i := range token {
		if token[i] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := codec.Verify(tampered)
		require.ErrorIs(t, err, domainauth.ErrInvalidToken, "flip at index %d was accepted", i)
	}
}

func TestCodec_ExpiryEnforced(t *testing.T) {
	p := mustPrincipal(t, "vitalora", time.Hour)
	token, err := newTestCodec("secret-a", testNow).Mint(p)
	require.NoError(t, err)

	_, err = newTestCodec("secret-a", testNow.Add(time.Hour)).Verify(token)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)

	_, err = newTestCodec("secret-a", testNow.Add(59*time.Minute)).Verify(token)
	require.NoError(t, err)
}

func TestCodec_PastExpiryRejectedDespiteValidSignature(t *testing.T) {
	codec := newTestCodec("secret-a", testNow)
	p, err := domainauth.NewPrincipal("vitalora", testNow.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	token, err := codec.Mint(p)
	require.NoError(t, err)
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)
}

func TestCodec_SecretRotationInvalidates(t *testing.T) {
	// Fallback secrets derived from two different configured codes.
	secretA, err := ResolveSecret(SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: []string{"248911"}})
	require.NoError(t, err)
	secretB, err := ResolveSecret(SecretMaterial{Mode: domainauth.ModeSharedCode, Codes: []string{"777777"}})
	require.NoError(t, err)

	token, err := newTestCodec(string(secretA.Key), testNow).Mint(mustPrincipal(t, "code:1", time.Hour))
	require.NoError(t, err)

	_, err = newTestCodec(string(secretB.Key), testNow).Verify(token)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)
}

func TestCodec_RejectsMalformedTokens(t *testing.T) {
	const key = "secret-a"
	codec := newTestCodec(key, testNow)
	iat := testNow.UnixMilli()
	exp := testNow.Add(time.Hour).UnixMilli()
	valid := func(body string) string { return signRaw(t, key, body) }

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no separator", token: "abcdef"},
		{name: "three parts", token: "a.b.c"},
		{name: "empty payload", token: ".abc"},
		{name: "empty signature", token: "abc."},
		{name: "signature not base64", token: "abc.!!!"},
		{name: "garbage with dot", token: "\x00\xff.\x00"},
		{name: "signed non-json", token: valid("not json")},
		{name: "signed array", token: valid(`[1,2,3]`)},
		{name: "signed missing subject", token: valid(`{"typ":"staff","iat":1,"exp":2,"ver":1}`)},
		{name: "signed empty subject", token: valid(`{"sub":"","typ":"staff","iat":1,"exp":2,"ver":1}`)},
		{name: "signed subject wrong type", token: valid(`{"sub":42,"typ":"staff","iat":1,"exp":2,"ver":1}`)},
		{name: "signed wrong typ", token: valid(`{"sub":"x","typ":"admin","iat":1,"exp":99999999999999,"ver":1}`)},
		{name: "signed missing exp", token: valid(`{"sub":"x","typ":"staff","iat":1,"ver":1}`)},
		{name: "signed string exp", token: valid(`{"sub":"x","typ":"staff","iat":1,"exp":"soon","ver":1}`)},
		{name: "signed unknown version", token: valid(`{"sub":"x","typ":"staff","iat":1,"exp":99999999999999,"ver":2}`)},
		{name: "signed unknown field", token: valid(`{"sub":"x","typ":"staff","iat":1,"exp":99999999999999,"ver":1,"role":"admin"}`)},
		{name: "signed exp before iat", token: valid(`{"sub":"x","typ":"staff","iat":99999999999999,"exp":1,"ver":1}`)},
		{name: "signed trailing data", token: valid(`{"sub":"x","typ":"staff","iat":1,"exp":99999999999999,"ver":1} {}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := codec.Verify(tt.token)
				require.ErrorIs(t, err, domainauth.ErrInvalidToken)
			})
		})
	}

	// Sanity check: a hand-built well-formed payload is accepted.
	ok := valid(`{"sub":"x","typ":"staff","iat":` + strconv.FormatInt(iat, 10) + `,"exp":` + strconv.FormatInt(exp, 10) + `,"ver":1}`)
	p, err := codec.Verify(ok)
	require.NoError(t, err)
	assert.Equal(t, "x", p.Subject)
}

func TestCodec_NoSecret(t *testing.T) {
	codec := NewCodec(CodecOptions{Secrets: NewSecretResolver(SecretMaterial{})})

	_, err := codec.Mint(mustPrincipal(t, "x", time.Hour))
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)

	_, err = codec.Verify("abc.def")
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret)
	assert.NotErrorIs(t, err, domainauth.ErrInvalidToken)

	_, err = codec.Verify("")
	require.ErrorIs(t, err, domainauth.ErrNoSigningSecret, "a missing secret outranks a missing token")
}

func TestCodec_MintRejectsInvalidPrincipal(t *testing.T) {
	codec := newTestCodec("secret-a", testNow)
	_, err := codec.Mint(domainauth.Principal{Subject: "x", IssuedAt: testNow, ExpiresAt: testNow, Version: 1})
	require.Error(t, err)
}
