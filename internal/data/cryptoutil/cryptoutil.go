package cryptoutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrEmptyKey is returned when an HMAC signer is constructed without key material.
var ErrEmptyKey = errors.New("hmac key must not be empty")

// EqualConstantTime reports whether a and b are equal without leaking where they differ
// or how long either input is. Both sides are reduced to fixed-size SHA-256 digests before
// the constant-time byte comparison, so length mismatches take the same path as content mismatches.
func EqualConstantTime(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

// SHA256Hex returns the lowercase hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, non-reversible identifier for key material, safe to log.
func Fingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:4])
}

// HMACSigner computes and checks HMAC-SHA256 signatures with a fixed key.
type HMACSigner struct {
	key []byte // never logged
}

// NewHMACSigner constructs an HMACSigner. The key is copied.
func NewHMACSigner(key []byte) (*HMACSigner, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &HMACSigner{key: append([]byte(nil), key...)}, nil
}

// Sign returns the HMAC-SHA256 of msg.
func (s *HMACSigner) Sign(msg []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Verify reports whether sig is the HMAC-SHA256 of msg. A signature of the wrong length
// is simply rejected.
func (s *HMACSigner) Verify(msg, sig []byte) bool {
	return hmac.Equal(s.Sign(msg), sig)
}
