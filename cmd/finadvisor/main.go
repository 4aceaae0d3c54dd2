package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/cli"
	apphttp "finadvisor/internal/http"
	"finadvisor/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	logger := cli.SetupLogger("app", false)
	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.Debug {
		logger = cli.SetupLogger("app", true)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	summaries, stopCache := cli.InitSummaryCache(context.Background(), logger, cfg)

	svc := services.NewRegistry(res.Store, res.Publisher, summaries)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Ping:               res.Ping,
	}, svc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		stopCache()
		if err := res.Close(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	})

	logger.Info("Starting finadvisor server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
