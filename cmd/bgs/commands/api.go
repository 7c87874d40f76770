package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/api"
	"github.com/hal2001/BatchGetSymbols/internal/api/handlers"
	"github.com/hal2001/BatchGetSymbols/internal/batch"
	"github.com/hal2001/BatchGetSymbols/internal/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health        - Health check
  GET  /api/batch     - Run a batch from query parameters
  POST /api/batch     - Run a batch from a JSON body
  GET  /ws/progress   - Websocket stream of run progress
  GET  /metrics       - Prometheus metrics

Example:
  go run ./cmd/bgs api
  go run ./cmd/bgs api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log
	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"cache": a.store.Name(),
	}).Info("Initializing API server")

	hub := handlers.NewProgressHub(log)
	runMetrics := metrics.New()
	orch := a.orchestrator(batch.MultiObserver{hub, runMetrics})

	batchHandler := handlers.NewBatchHandler(orch, cfg.Batch.BenchTicker, log).
		WithRunTimeout(api.RunTimeout(cfg))
	router := api.NewRouter(batchHandler, hub, runMetrics.Handler(), log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	fmt.Fprintln(out, "\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /api/batch",
		"POST /api/batch",
		"GET  /ws/progress",
		"GET  /metrics",
	})
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
