package cli

import (
	"context"
	"fmt"
	"time"

	"fluxcareer/internal/config"
	"fluxcareer/internal/history"
	"fluxcareer/internal/observability"
	"fluxcareer/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server that exposes cover letter, interview, tailoring, chat,
history and spreadsheet endpoints as JSON.

Available endpoints:
- POST /cover-letter, /interview, /tailor, /chat, /sheets
- GET /history, GET and DELETE /history/{id}
- GET /health: provider and circuit breaker status
- GET /stats: server statistics and rate limiting info`,
	RunE: runServe,
}

var serveOverrides struct {
	host string
	port string
}

func init() {
	serveCmd.Flags().StringVarP(&serveOverrides.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveOverrides.host, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if serveOverrides.port != "" {
		cfg.Server.Port = serveOverrides.port
	}
	if serveOverrides.host != "" {
		cfg.Server.Host = serveOverrides.host
	}

	vaultClient, err := config.ApplyVaultSecrets(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load secrets from vault: %w", err)
	}

	om, err := observability.NewManager(observability.SettingsFromConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	stores, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.LogError(err, "Failed to close history store")
		}
	}()

	opts := []server.Option{server.WithObservability(om)}
	if vaultClient != nil {
		opts = append(opts, server.WithVault(vaultClient))
	}

	srv := server.NewServer(cfg, server.ServerConfigFromConfig(cfg, Version), stores, logger, opts...)
	return srv.Start(ctx)
}
