// Command circulationd serves the circulation HTTP API on top of the configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-circulation-go/config"
	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/server"
)

const (
	serviceVersion  = "1.0.0"
	instrumentName  = "github.com/AntonStoeckl/library-circulation-go/cmd/circulationd"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("circulationd failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	var logger lending.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	var metrics lending.MetricsCollector

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled {
		providers, providersErr := config.NewObservabilityProviders(ctx, cfg.Observability, serviceVersion)
		if providersErr != nil {
			return fmt.Errorf("observability: %w", providersErr)
		}
		defer func() {
			if shutdownErr := providers.Shutdown(); shutdownErr != nil {
				logger.Error("observability shutdown failed", "error", shutdownErr.Error())
			}
		}()

		logger = oteladapters.NewSlogBridgeLogger(instrumentName)
		metrics = oteladapters.NewMetricsCollector(otel.Meter(instrumentName))
	}

	st, closeStore, err := openStore(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeStore()

	gin.SetMode(gin.ReleaseMode)

	srv := server.New(st,
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("circulationd listening", "addr", cfg.Server.Addr, "store_backend", cfg.Store.Backend)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("circulationd shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
