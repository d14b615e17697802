package main

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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pestline/pestline"
	"github.com/pestline/pestline/infrastructure/api"
	"github.com/pestline/pestline/internal/config"
	"github.com/pestline/pestline/internal/log"
)

const shutdownTimeout = 15 * time.Second

type serveFlags struct {
	envFile  string
	host     string
	port     int
	dataDir  string
	logLevel string
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                   Server host to bind to (default: 0.0.0.0)
  PORT                   Server port to listen on (default: 8080)
  DATA_DIR               Data directory (default: ~/.pestline)
  DB_URL                 Database URL (default: sqlite:///{data_dir}/pestline.db)
  LOG_LEVEL              Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT             Log format: pretty, json (default: pretty)
  API_KEYS               Comma-separated keys required for writes
  CORS_ALLOWED_ORIGINS   Comma-separated origins allowed by CORS
  CONTENT_MAX_DEPTH      Deepest content nesting accepted (default: 256)
  MAX_BODY_BYTES         Request body limit in bytes (default: 4194304)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&flags.host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Server port to listen on (default: 8080)")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "Data directory (default: ~/.pestline)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (default: INFO)")

	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := loadConfig(flags.envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, flags)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting pestline", attrs...)

	client, err := pestline.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create pestline client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, pestline.ErrClientClosed) {
			logger.Error("failed to close pestline client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client,
		api.WithVersion(version),
		api.WithCommit(commit),
		api.WithCORSAllowedOrigins(cfg.CORSAllowedOrigins()),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes()),
	)
	router := apiServer.Router()
	apiServer.MountRoutes()

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"pestline","version":%q,"docs":"/docs"}`, version)
	})

	server := api.NewServer(cfg.Addr(), logger)
	server.Router().Mount("/", router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, flags serveFlags) config.AppConfig {
	var opts []config.AppConfigOption

	if flags.host != "" {
		opts = append(opts, config.WithHost(flags.host))
	}
	if flags.port != 0 {
		opts = append(opts, config.WithPort(flags.port))
	}
	if flags.dataDir != "" {
		opts = append(opts, config.WithDataDir(flags.dataDir))
	}
	if flags.logLevel != "" {
		opts = append(opts, config.WithLogLevel(flags.logLevel))
	}

	return cfg.Apply(opts...)
}
