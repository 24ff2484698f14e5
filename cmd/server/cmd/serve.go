package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherhall/server/internal/api"
	"github.com/gatherhall/server/internal/api/handlers"
	"github.com/gatherhall/server/internal/auth"
	"github.com/gatherhall/server/internal/config"
	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/ids"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/gatherhall/server/internal/domain/users"
	"github.com/gatherhall/server/internal/email"
	"github.com/gatherhall/server/internal/jobs"
	"github.com/gatherhall/server/internal/metrics"
	"github.com/gatherhall/server/internal/storage/postgres"
	"github.com/gatherhall/server/internal/uploads"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GatherHall HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Apply pending database migrations
- Bootstrap an admin user if ADMIN_* env vars are set
- Start background email workers
- Handle graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 4000)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gatherhall server")

	metrics.Init(Version, GitCommit)

	if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	logger.Info().Msg("database schema up to date")

	pool, err := newPool(cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	emailService, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email service init failed: %w", err)
	}

	workers := jobs.NewWorkers(emailService)
	riverLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	riverClient, err := jobs.NewClient(pool, workers, riverLogger)
	if err != nil {
		return fmt.Errorf("job queue init failed: %w", err)
	}
	dispatcher := jobs.NewDispatcher(riverClient, emailService, logger)

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, "gatherhall")
	usersService := users.NewService(repo.Users(), tokens, dispatcher, cfg.Server.FrontendURL, cfg.Auth.ResetTokenTTL, logger)
	eventsService := events.NewService(repo.Events())
	registrationsService := registrations.NewService(repo.Registrations(), dispatcher, logger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootCtx, cfg, repo, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootCancel()

	images, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return fmt.Errorf("upload store init failed: %w", err)
	}
	defer func() { _ = images.Close() }()

	handler := api.NewRouter(api.RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Tokens:  tokens,
		Auth:    handlers.NewAuthHandler(usersService),
		Events:  handlers.NewEventsHandler(eventsService, registrationsService, images),
		Health:  handlers.NewHealthHandler(pool, Version),
		Images:  images,
		Metrics: true,
	})

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("job workers failed to start: %w", err)
	}
	logger.Info().Msg("notification workers started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("job workers shutdown error")
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func newPool(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pgxpool.NewWithConfig(ctx, poolConfig)
}

// bootstrapAdminUser creates the configured admin account on first start.
// Self-registration can never produce an admin, so this is the only path.
func bootstrapAdminUser(ctx context.Context, cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Name == "" || bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Debug().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	if _, err := repo.Users().GetByEmail(ctx, bootstrap.Email); err == nil {
		return nil
	} else if !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := users.User{
		ID:           ids.New(),
		Name:         bootstrap.Name,
		Email:        bootstrap.Email,
		PasswordHash: hash,
		Role:         string(auth.RoleAdmin),
	}
	if err := repo.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info().Str("email", bootstrap.Email).Msg("bootstrapped admin user")
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
