package cmd

import (
	"fmt"
	"os"

	"github.com/cvisual/server/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string
)

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:   "server",
		Short: "cvisual server - content backend for the agency website",
		Long: `cvisual server serves the JSON API behind the agency website and its
admin dashboard.

The server provides:
- Portfolio projects with galleries and metrics
- Blog posts, service offerings and client testimonials
- Contact form intake with email notification
- Newsletter subscriptions
- Image uploads to Cloudinary`,
		SilenceUsage: true,
		// serve is the default when no subcommand is given
		RunE: serve.RunE,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables still take precedence)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the command line. It is called by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and the environment, then applies the logging
// flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
