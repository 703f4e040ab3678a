package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalora/staffgate/internal/adapters/credentials"
	"github.com/vitalora/staffgate/internal/adapters/signing"
	"github.com/vitalora/staffgate/internal/bootstrap"
)

func hashPasswordCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin for STAFF_PASSWORD_HASH",
		Long: `Reads one line from stdin and prints its hash.

  echo -n 'hunter2' | staffgate-admin hash-password --kind bcrypt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := credentials.HashPassword(password, credentials.HashKind(kind))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(credentials.HashBcrypt), "hash format: bcrypt or sha256")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password on stdin")
	}
	return line, nil
}

func deriveSecretCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "derive-secret",
		Short: "Show which signing secret the current configuration resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			secret, err := signing.ResolveSecret(bootstrap.SecretMaterial(cfg.Auth))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err = fmt.Fprintf(out, "source:      %s\nfingerprint: %s\n", secret.Source, secret.Fingerprint()); err != nil {
				return err
			}
			if reveal {
				_, err = fmt.Fprintf(out, "secret:      %s\n", secret.Key)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "also print the secret itself")
	return cmd
}
