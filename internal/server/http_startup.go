package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start serves the API until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	s.startKeyWatcher()
	s.watchConfig()
	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.ReadTimeout,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startKeyWatcher polls Vault for provider key rotation when configured
func (s *Server) startKeyWatcher() {
	cfg := s.snapshot().cfg
	watch := cfg.Vault.Watch
	if s.vault == nil || !watch.Enabled || cfg.Vault.Secrets.ProviderKeys == "" {
		return
	}

	s.keyWatcher = NewKeyWatcher(s.vault, cfg.Vault.Secrets.ProviderKeys, watch.PollInterval, s.rotateProviderKeys, s.Logger)
	if err := s.keyWatcher.Start(); err != nil {
		s.Logger.LogError(err, "Failed to start Vault key watcher")
		s.keyWatcher = nil
	}
}

// watchConfig hot-reloads the config file when enabled
func (s *Server) watchConfig() {
	cfg := s.snapshot().cfg
	if !cfg.Server.WatchConfig {
		return
	}
	if !cfg.Watch(s.Logger, s.reloadConfig) {
		s.Logger.Debug("No config file loaded, hot reload disabled")
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanup()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops background goroutines owned by the server
func (s *Server) cleanup() {
	if s.keyWatcher != nil {
		s.keyWatcher.Stop()
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
