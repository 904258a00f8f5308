package cmd

import (
	"fmt"

	"github.com/cvisual/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var migrationsPath string

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back database migrations with golang-migrate.

By default the migrations compiled into the binary are used. Pass
--migrations to run a directory from disk instead.`,
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "", "migrations directory (default: embedded)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, path, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(databaseURL, path); err != nil {
				return err
			}
			return printVersion(cmd, databaseURL, path)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			databaseURL, path, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(databaseURL, path, steps); err != nil {
				return err
			}
			return printVersion(cmd, databaseURL, path)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, path, err := migrationTarget()
			if err != nil {
				return err
			}
			return printVersion(cmd, databaseURL, path)
		},
	})
	return cmd
}

func migrationTarget() (databaseURL, path string, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	path = cfg.Database.MigrationsPath
	if migrationsPath != "" {
		path = migrationsPath
	}
	return cfg.Database.URL, path, nil
}

func printVersion(cmd *cobra.Command, databaseURL, path string) error {
	version, dirty, err := postgres.MigrationVersion(databaseURL, path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}
