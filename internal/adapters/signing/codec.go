package signing

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalora/staffgate/internal/data/cryptoutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

const (
	tokenSeparator = "."
	tokenType      = "staff"
)

// Strict rejects non-canonical trailing bits so every signature has exactly one encoding.
var segmentEncoding = base64.RawURLEncoding.Strict()

// SecretProvider supplies the signing secret.
type SecretProvider interface {
	Secret() (Secret, error)
}

// CodecOptions configures a Codec.
type CodecOptions struct {
	Secrets SecretProvider
	// Now defaults to time.Now.
	Now func() time.Time
}

// Codec mints and verifies tokens of the form base64url(payload) "." base64url(hmac).
type Codec struct {
	secrets SecretProvider
	now     func() time.Time
}

var _ ports.TokenCodec = (*Codec)(nil)

// NewCodec constructs a Codec.
func NewCodec(opts CodecOptions) *Codec {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{secrets: opts.Secrets, now: now}
}

// payload field order is fixed so identical principals encode identically.
type payload struct {
	Sub string `json:"sub"`
	Typ string `json:"typ"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
	Ver int    `json:"ver"`
	Jti string `json:"jti,omitempty"`
}

// wirePayload mirrors payload with pointers so absent fields can be told apart from zero values.
type wirePayload struct {
	Sub *string `json:"sub"`
	Typ *string `json:"typ"`
	Iat *int64  `json:"iat"`
	Exp *int64  `json:"exp"`
	Ver *int    `json:"ver"`
	Jti *string `json:"jti"`
}

func (c *Codec) signer() (*cryptoutil.HMACSigner, error) {
	if c.secrets == nil {
		return nil, domainauth.ErrNoSigningSecret
	}
	secret, err := c.secrets.Secret()
	if err != nil {
		return nil, err
	}
	return cryptoutil.NewHMACSigner(secret.Key)
}

// Mint serializes and signs p. Timestamps are carried with millisecond precision.
func (c *Codec) Mint(p domainauth.Principal) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	signer, err := c.signer()
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}

	jti := p.TokenID
	if jti == "" {
		jti = uuid.NewString()
	}
	raw, err := json.Marshal(payload{
		Sub: p.Subject,
		Typ: tokenType,
		Iat: p.IssuedAt.UnixMilli(),
		Exp: p.ExpiresAt.UnixMilli(),
		Ver: p.Version,
		Jti: jti,
	})
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}

	body := segmentEncoding.EncodeToString(raw)
	sig := signer.Sign([]byte(body))
	return body + tokenSeparator + segmentEncoding.EncodeToString(sig), nil
}

// Verify checks the token signature, then the payload schema, then expiry.
// Every failure is reported as ErrInvalidToken except a missing secret (ErrNoSigningSecret).
func (c *Codec) Verify(token string) (domainauth.Principal, error) {
	signer, err := c.signer()
	if err != nil {
		return domainauth.Principal{}, err
	}

	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domainauth.Principal{}, invalid("malformed token")
	}

	sig, err := segmentEncoding.DecodeString(parts[1])
	if err != nil {
		return domainauth.Principal{}, invalid("malformed signature")
	}
	if !signer.Verify([]byte(parts[0]), sig) {
		return domainauth.Principal{}, invalid("signature mismatch")
	}

	// Only authenticated bytes are parsed from here on.
	raw, err := segmentEncoding.DecodeString(parts[0])
	if err != nil {
		return domainauth.Principal{}, invalid("malformed payload")
	}
	p, err := decodePayload(raw)
	if err != nil {
		return domainauth.Principal{}, invalid(err.Error())
	}
	if p.ExpiredAt(c.now()) {
		return domainauth.Principal{}, invalid("token expired")
	}
	return p, nil
}

func decodePayload(raw []byte) (domainauth.Principal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wirePayload
	if err := dec.Decode(&w); err != nil {
		return domainauth.Principal{}, errors.New("payload is not a valid object")
	}
	if dec.More() {
		return domainauth.Principal{}, errors.New("trailing payload data")
	}

	switch {
	case w.Sub == nil || strings.TrimSpace(*w.Sub) == "":
		return domainauth.Principal{}, errors.New("payload missing subject")
	case w.Typ == nil || *w.Typ != tokenType:
		return domainauth.Principal{}, errors.New("payload has wrong type")
	case w.Iat == nil || w.Exp == nil:
		return domainauth.Principal{}, errors.New("payload missing timestamps")
	case w.Ver == nil:
		return domainauth.Principal{}, errors.New("payload missing version")
	}

	p := domainauth.Principal{
		Subject:   *w.Sub,
		IssuedAt:  time.UnixMilli(*w.Iat).UTC(),
		ExpiresAt: time.UnixMilli(*w.Exp).UTC(),
		Version:   *w.Ver,
	}
	if w.Jti != nil {
		p.TokenID = *w.Jti
	}
	if err := p.Validate(); err != nil {
		return domainauth.Principal{}, err
	}
	return p, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", domainauth.ErrInvalidToken, reason)
}
