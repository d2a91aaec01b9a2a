package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"review-analyzer/internal/bootstrap"
	"review-analyzer/internal/shared/config"
	"review-analyzer/internal/shared/server"
	"review-analyzer/internal/shared/telemetry"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = 10 * time.Minute
)

func main() {
	cfg := config.Load()
	logger, err := telemetry.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	telemetry.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	go sweepWorkspaces(ctx, app, logger)

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting API server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func sweepWorkspaces(ctx context.Context, app *bootstrap.App, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.Workspaces.Sweep(); n > 0 {
				logger.Debug("idle workspaces dropped", zap.Int("count", n))
			}
		}
	}
}
