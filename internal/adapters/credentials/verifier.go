package credentials

import (
	"fmt"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	"github.com/vitalora/staffgate/internal/ports"
)

// Options carries the configured expected credential values.
type Options struct {
	Mode         domainauth.Mode
	Codes        []string
	Username     string
	Password     string
	PasswordHash string
}

// New selects the verifier variant for opts.Mode.
//
//nolint:ireturn // callers only depend on the port.
func New(opts Options) (ports.CredentialVerifier, error) {
	switch opts.Mode {
	case domainauth.ModeSharedCode:
		return NewSharedCode(opts.Codes), nil
	case domainauth.ModeUsernamePassword:
		v, err := NewUsernamePassword(opts.Username, opts.Password, opts.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("username/password verifier: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported credential mode %q", opts.Mode)
	}
}
