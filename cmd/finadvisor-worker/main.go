package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finadvisor/internal/amqp"
	"finadvisor/internal/cli"
	"finadvisor/internal/config"
	"finadvisor/internal/ledger"
	"finadvisor/internal/ledger/google"
	"finadvisor/internal/ledger/memory"
	applog "finadvisor/internal/log"
	"finadvisor/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("finadvisor-worker", false)
	logger.Info("Starting finadvisor-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.Debug {
		logger = cli.SetupLogger("finadvisor-worker", true)
	}

	// the worker always reads the SQLite outbox, whatever the API serves from
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	exporter := initExporter(logger, cfg)
	syncWorker := worker.NewSyncWorker(sqliteRepo, exporter, cfg.SyncBatchSize)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic sync", "error", err)
			amqpClient = nil
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic sync")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err, applog.FieldOperation, applog.OpStartup)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.Consume(ctx, syncWorker.HandleMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	go syncWorker.RunPeriodic(ctx, cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// initExporter returns the Sheets exporter when a spreadsheet is configured.
// Without one, rows are recorded in memory so the outbox still drains.
func initExporter(logger *applog.Logger, cfg *config.Config) ledger.Exporter {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memory.New()
	}
	exporter, err := google.NewWithSettings(context.Background(), google.Settings{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		LedgerSheet:     cfg.GoogleSheetName,
		ReportSheet:     cfg.GoogleReportSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err, applog.FieldComponent, applog.ComponentExporter)
		os.Exit(1)
	}
	logger.Info("Successfully initialized Google Sheets exporter", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return exporter
}
