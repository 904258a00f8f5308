package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cvisual/server/internal/api"
	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/email"
	"github.com/cvisual/server/internal/media"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/seed"
	"github.com/cvisual/server/internal/storage/postgres"
	"github.com/cvisual/server/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	host string
	port int
}

func newServeCommand() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server and begin accepting requests.

The server will:
- Load configuration from environment variables (and --config if given)
- Apply pending migrations when DATABASE_AUTO_MIGRATE is set
- Bootstrap the admin user if ADMIN_USERNAME and ADMIN_PASSWORD are set
- Serve the API under /api, plus /health and /metrics
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with configuration from the environment
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with a config file and console logs
  server serve --config /etc/cvisual/config.yaml --log-format console`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting cvisual server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, cfg.Environment)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := openPool(ctx, cfg.Database)
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
	bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, connectTimeout)
	if _, err := seeder.BootstrapAdmin(bootstrapCtx, cfg.AdminBootstrap); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	dbCollector := metrics.NewDBCollector(pool)
	go dbCollector.Start(ctx, 15*time.Second)
	defer dbCollector.Stop()

	notifier, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("init email: %w", err)
	}
	store, err := newMediaStore(cfg.Media, logger)
	if err != nil {
		return err
	}

	router := api.NewRouter(cfg, logger, api.Dependencies{
		Repo:     repo,
		DB:       pool,
		Media:    store,
		Notifier: notifier,
		Build:    buildInfo(),
	})
	defer router.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler,
		ReadTimeout:       30 * time.Second, // multipart uploads
		WriteTimeout:      60 * time.Second, // gateway round trips during uploads
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newMediaStore returns a nil store when Cloudinary is not configured; the
// upload routes then answer 503.
func newMediaStore(cfg config.MediaConfig, logger zerolog.Logger) (projects.MediaStore, error) {
	if !cfg.Enabled() {
		logger.Warn().Msg("cloudinary credentials not set; image uploads disabled")
		return nil, nil
	}
	uploader, err := media.NewCloudinary(cfg)
	if err != nil {
		return nil, err
	}
	return media.NewGateway(uploader, cfg.RootFolder, logger, media.WithMaxSize(cfg.MaxUploadSize)), nil
}
