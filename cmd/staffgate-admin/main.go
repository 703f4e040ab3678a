// Command staffgate-admin is the operator CLI for staffgate: password hashing, signing secret
// inspection, session token debugging and database migrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/bootstrap"
)

// version is set at build time.
var version = "dev"

// app carries what commands need from the environment.
type app struct {
	loadConfig func() (config.AppConfig, error)
	now        func() time.Time
	logger     *slog.Logger
}

func main() {
	a := &app{
		loadConfig: bootstrap.LoadConfig,
		now:        time.Now,
		logger:     bootstrap.InitLogger(),
	}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "staffgate-admin",
		Short:         "Operator tooling for the staffgate staff login service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		hashPasswordCmd(),
		deriveSecretCmd(a),
		mintTokenCmd(a),
		verifyTokenCmd(a),
		migrateCmd(a),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
