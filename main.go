package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/locvowork/hiring_analytics/internal/bootstrap"
	"github.com/locvowork/hiring_analytics/internal/logger"
)

// @title Hiring Analytics API
// @version 1.0.0
// @description Loads departments, jobs and hired employees from CSV and reports hiring metrics.
// @BasePath /api/v1
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.ErrorLog(ctx, "Server stopped", err)
		}
	case <-ctx.Done():
		logger.InfoLog(context.Background(), "Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.ErrorLog(shutdownCtx, "Shutdown failed", err)
		os.Exit(1)
	}
}
