package cryptoutil

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualConstantTime(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "equal", a: "248911", b: "248911", want: true},
		{name: "near miss", a: "248911", b: "248912", want: false},
		{name: "far miss", a: "248911", b: "000000", want: false},
		{name: "shorter", a: "248911", b: "24891", want: false},
		{name: "longer", a: "248911", b: "2489110", want: false},
		{name: "empty vs value", a: "", b: "x", want: false},
		{name: "both empty", a: "", b: "", want: true},
		{name: "case sensitive", a: "Secret", b: "secret", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EqualConstantTime(tt.a, tt.b))
		})
	}
}

func TestSHA256Hex(t *testing.T) {
	// Known vector for "abc".
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		SHA256Hex("abc"),
	)
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint(nil))
	fp := Fingerprint([]byte("abc"))
	assert.Equal(t, "ba7816bf", fp)
}

func TestHMACSigner(t *testing.T) {
	_, err := NewHMACSigner(nil)
	require.ErrorIs(t, err, ErrEmptyKey)

	signer, err := NewHMACSigner([]byte("key"))
	require.NoError(t, err)

	msg := []byte("The quick brown fox jumps over the lazy dog")
	sig := signer.Sign(msg)
	assert.Equal(t,
		"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		hex.EncodeToString(sig),
	)
	assert.True(t, signer.Verify(msg, sig))
	assert.False(t, signer.Verify(msg, sig[:len(sig)-1]))
	assert.False(t, signer.Verify([]byte("other"), sig))

	other, err := NewHMACSigner([]byte("other-key"))
	require.NoError(t, err)
	assert.False(t, other.Verify(msg, sig))
}
