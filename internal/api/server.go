// Package api exposes batch runs over HTTP and progress over websocket.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hal2001/BatchGetSymbols/pkg/config"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API server settings live in this file only
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// DefaultRunTimeout applies when config carries no BATCH_RUN_TIMEOUT
const DefaultRunTimeout = 10 * time.Minute

// writeSlack is left after a run's deadline for encoding the result tables
const writeSlack = 30 * time.Second

// New creates a new API server
// The write timeout follows the batch run timeout.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      RunTimeout(cfg) + writeSlack,
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
		config: cfg,
	}
}

// RunTimeout is the deadline given to each batch run served over HTTP
func RunTimeout(cfg *config.Config) time.Duration {
	if cfg.Batch.RunTimeout > 0 {
		return cfg.Batch.RunTimeout
	}
	return DefaultRunTimeout
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port":          s.config.Port,
		"env":           s.config.Env,
		"run_timeout":   RunTimeout(s.config).String(),
		"write_timeout": s.httpServer.WriteTimeout.String(),
	}).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
