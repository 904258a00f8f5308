package cmd

import (
	"fmt"

	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/seed"
	"github.com/cvisual/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and the default services",
		Long: `Create the administrator from ADMIN_USERNAME, ADMIN_PASSWORD and
ADMIN_EMAIL, then insert the default service catalogue.

Running it again is harmless: an existing admin is left alone and services
are only seeded into an empty table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logging)

			pool, err := openPool(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo, err := postgres.NewRepository(pool)
			if err != nil {
				return err
			}
			seeder := seed.Seeder{
				Users:     users.NewService(repo.Users(), logger),
				Offerings: offerings.NewService(repo.Offerings(), logger),
				Logger:    logger,
			}
			result, err := seeder.Run(cmd.Context(), cfg.AdminBootstrap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.AdminCreated {
				fmt.Fprintf(out, "admin user %q created\n", cfg.AdminBootstrap.Username)
			} else {
				fmt.Fprintln(out, "admin user unchanged")
			}
			fmt.Fprintf(out, "%d default services created\n", result.ServicesCreated)
			return nil
		},
	}
}
