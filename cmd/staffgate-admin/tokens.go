package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/adapters/signing"
	"github.com/vitalora/staffgate/internal/bootstrap"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

func (a *app) codec(cfg config.AppConfig) *signing.Codec {
	return signing.NewCodec(signing.CodecOptions{
		Secrets: signing.NewSecretResolver(bootstrap.SecretMaterial(cfg.Auth)),
		Now:     a.now,
	})
}

func mintTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint-token",
		Short: "Mint a session token with the configured signing secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.SessionTTL
			}
			p, err := domainauth.NewPrincipal(subject, a.now(), ttl)
			if err != nil {
				return err
			}
			token, err := a.codec(cfg).Mint(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "code:1", "principal subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default STAFF_SESSION_TTL)")
	return cmd
}

func verifyTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-token TOKEN",
		Short: "Verify a session token and print its principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p, err := a.codec(cfg).Verify(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}
