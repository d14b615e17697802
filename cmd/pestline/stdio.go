package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pestline/pestline"
	"github.com/pestline/pestline/internal/log"
	"github.com/pestline/pestline/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

Assistants can read reports and check content trees through it. Logs go to
stderr so stdout carries only protocol messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)
	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	client, err := pestline.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create pestline client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, pestline.ErrClientClosed) {
			logger.Error("failed to close pestline client", slog.Any("error", err))
		}
	}()

	return mcp.NewServer(client.Reports, client.Reports, version, logger).ServeStdio()
}
