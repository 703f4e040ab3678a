package credentials

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vitalora/staffgate/internal/data/cryptoutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

var _ ports.CredentialVerifier = (*UsernamePassword)(nil)

// HashKind identifies the format of a stored password hash.
type HashKind string

const (
	HashNone   HashKind = ""
	HashSHA256 HashKind = "sha256"
	HashBcrypt HashKind = "bcrypt"
)

// ErrUnknownHashFormat is returned for a configured hash that is neither SHA-256 hex nor bcrypt.
var ErrUnknownHashFormat = errors.New("password hash must be 64 hex characters (sha256) or a bcrypt hash")

// DetectHashKind classifies a stored hash.
func DetectHashKind(hash string) (HashKind, error) {
	hash = strings.TrimSpace(hash)
	switch {
	case hash == "":
		return HashNone, nil
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return HashBcrypt, nil
	case len(hash) == 64 && isHex(hash):
		return HashSHA256, nil
	default:
		return HashNone, ErrUnknownHashFormat
	}
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// HashPassword produces a stored hash of the requested kind.
func HashPassword(password string, kind HashKind) (string, error) {
	if password == "" {
		return "", domainauth.ErrMissingCredentials
	}
	switch kind {
	case HashSHA256:
		return cryptoutil.SHA256Hex(password), nil
	case HashBcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported hash kind %q", kind)
	}
}

// UsernamePassword accepts one configured username/password pair. The username is matched
// case-insensitively; the password is matched exactly, either in plaintext or against a hash.
type UsernamePassword struct {
	username string // lowercased
	password string
	hash     string
	hashKind HashKind
}

// NewUsernamePassword builds a verifier. A non-empty hash takes precedence over password.
func NewUsernamePassword(username, password, hash string) (*UsernamePassword, error) {
	kind, err := DetectHashKind(hash)
	if err != nil {
		return nil, err
	}
	h := strings.TrimSpace(hash)
	if kind == HashSHA256 {
		h = strings.ToLower(h)
	}
	return &UsernamePassword{
		username: strings.ToLower(strings.TrimSpace(username)),
		password: password,
		hash:     h,
		hashKind: kind,
	}, nil
}

// Mode implements ports.CredentialVerifier.
func (v *UsernamePassword) Mode() domainauth.Mode { return domainauth.ModeUsernamePassword }

// Verify checks username and password. Both comparisons always run so a wrong username
// and a wrong password are indistinguishable.
func (v *UsernamePassword) Verify(_ context.Context, creds domainauth.Credentials) (string, error) {
	username := strings.ToLower(strings.TrimSpace(creds.Username))
	if username == "" || creds.Password == "" {
		return "", domainauth.ErrMissingCredentials
	}
	if v.username == "" || (v.password == "" && v.hash == "") {
		return "", domainauth.ErrCredentialsNotConfigured
	}

	userOK := cryptoutil.EqualConstantTime(username, v.username)
	passOK := v.checkPassword(creds.Password)
	if !userOK || !passOK {
		return "", domainauth.ErrInvalidCredentials
	}
	return v.username, nil
}

func (v *UsernamePassword) checkPassword(password string) bool {
	switch v.hashKind {
	case HashBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(v.hash), []byte(password)) == nil
	case HashSHA256:
		return cryptoutil.EqualConstantTime(cryptoutil.SHA256Hex(password), v.hash)
	default:
		return cryptoutil.EqualConstantTime(password, v.password)
	}
}
