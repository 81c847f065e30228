package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devboardhq/devboard/internal/api"
	"github.com/devboardhq/devboard/internal/auth"
	"github.com/devboardhq/devboard/internal/config"
	"github.com/devboardhq/devboard/internal/service"
	"github.com/devboardhq/devboard/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the devboard server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "devboard version %s\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.ViewerToken == "" {
		printWarning("viewer token not configured; only the admin role can access the API")
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the record store and materialize the backing file if missing.
	store, err := storage.Open(cfg.Storage.DataPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	table, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading device table: %w", err)
	}
	slog.Info("device table loaded", "path", store.Path(), "rows", len(table))

	// Build HTTP handler and server.
	handler := api.NewHandler(api.Deps{
		Service: service.New(store),
		Gate:    auth.NewGate(cfg.Auth.AdminToken, cfg.Auth.ViewerToken),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "devboard listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
