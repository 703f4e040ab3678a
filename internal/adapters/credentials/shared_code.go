// Package credentials implements the staff credential verifiers: a shared access code list
// and a single username/password pair.
package credentials

import (
	"context"
	"strconv"
	"strings"

	"github.com/vitalora/staffgate/internal/data/cryptoutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

var _ ports.CredentialVerifier = (*SharedCode)(nil)

// SharedCode accepts any one of a set of configured access codes.
type SharedCode struct {
	codes []string
}

// NewSharedCode builds a SharedCode verifier. Blank entries are ignored.
func NewSharedCode(codes []string) *SharedCode {
	cleaned := make([]string, 0, len(codes))
	for _, c := range codes {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return &SharedCode{codes: cleaned}
}

// Mode implements ports.CredentialVerifier.
func (v *SharedCode) Mode() domainauth.Mode { return domainauth.ModeSharedCode }

// Verify compares the submitted code against every configured code without stopping at the
// first match. The subject is "code:<n>", the 1-based position of the matching code, so the
// code itself never ends up in the session payload.
func (v *SharedCode) Verify(_ context.Context, creds domainauth.Credentials) (string, error) {
	code := strings.TrimSpace(creds.Code)
	if code == "" {
		return "", domainauth.ErrMissingCredentials
	}
	if len(v.codes) == 0 {
		return "", domainauth.ErrCredentialsNotConfigured
	}

	matched := 0
	for i, expected := range v.codes {
		if cryptoutil.EqualConstantTime(code, expected) && matched == 0 {
			matched = i + 1
		}
	}
	if matched == 0 {
		return "", domainauth.ErrInvalidCredentials
	}
	return "code:" + strconv.Itoa(matched), nil
}
