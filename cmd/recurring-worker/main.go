package main

import (
	"context"
	"time"

	"finadvisor/internal/cli"
	applog "finadvisor/internal/log"
	"finadvisor/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("recurring-worker", false)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.Debug {
		logger = cli.SetupLogger("recurring-worker", true)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	summaries, stopCache := cli.InitSummaryCache(context.Background(), logger, cfg)

	// generated transactions go through the same service as API writes, so
	// they are published for sync; summaries cached by the API process are
	// keyed by the ledger revision and miss on the next read
	svc := services.NewRegistry(res.Store, res.Publisher, summaries)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		stopCache()
		if err := res.Close(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	})

	interval := cfg.RecurringProcessorInterval
	logger.Info("Recurring transaction processor configured",
		"interval", interval,
		"backend", cfg.DataBackend)

	process := func(now time.Time) {
		count, err := svc.Processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Failed to process recurring transactions", "error", err,
				applog.FieldOperation, applog.OpGenerate)
			return
		}
		logger.Info("Successfully processed recurring transactions",
			"transactions_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	process(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			process(now)
		}
	}
}
