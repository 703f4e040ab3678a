package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitalora/staffgate/internal/bootstrap"
	"github.com/vitalora/staffgate/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

func migrateCmd(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the login audit database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultMigrationTimeout)
			defer cancel()

			db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: a.logger})
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					a.logger.ErrorContext(ctx, "close database failed", "error", cerr)
				}
			}()

			if !status {
				return bootstrap.RunMigrations(ctx, db, a.logger)
			}
			pending, err := migrate.Pending(ctx, db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				_, err = fmt.Fprintln(out, "schema is up to date")
				return err
			}
			for _, name := range pending {
				if _, err = fmt.Fprintln(out, "pending:", name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list pending migrations without applying them")
	return cmd
}
