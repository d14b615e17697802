package main

import (
	"log/slog"

	"github.com/pestline/pestline"
	"github.com/pestline/pestline/internal/config"
)

// clientOptions returns the pestline.Option slice derived from AppConfig.
// Callers append entrypoint-specific options before passing the slice to
// pestline.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []pestline.Option {
	opts := []pestline.Option{
		pestline.WithDataDir(cfg.DataDir()),
		pestline.WithLogger(logger),
		pestline.WithMaxDepth(cfg.MaxDepth()),
	}
	if dbURL := cfg.DBURL(); dbURL != "" {
		opts = append(opts, pestline.WithDBURL(dbURL))
	}
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, pestline.WithAPIKeys(keys...))
	}
	return opts
}
