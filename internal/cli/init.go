// Package cli provides common CLI initialization utilities shared by the
// commands under cmd/.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finadvisor/internal/backend"
	"finadvisor/internal/cache"
	"finadvisor/internal/config"
	"finadvisor/internal/core"
	applog "finadvisor/internal/log"
	"finadvisor/internal/storage"
)

const (
	summaryCacheSize     = 100
	summaryCachePrefix   = "finadvisor:summary:"
	summaryCleanupPeriod = 10 * time.Minute
	redisConnectTimeout  = 5 * time.Second
)

// SetupLogger initializes structured logging for a component and sets it as
// the process default.
func SetupLogger(component string, debug bool) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	cfg.Level = applog.LevelFor(debug)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the store selected by DATA_BACKEND.
// Exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.With(applog.FieldComponent, applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// InitSummaryCache returns the financial summary cache: Redis when
// REDIS_ADDR is set and reachable, otherwise an in-process LRU. The
// returned stop func releases whichever was built.
func InitSummaryCache(ctx context.Context, logger *applog.Logger, cfg *config.Config) (cache.Cache[core.FinancialSummary], func()) {
	logger = logger.WithComponent(applog.ComponentCache)

	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		client, err := cache.NewRedisClient(pingCtx, cache.RedisSettings{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			logger.Info("Successfully connected to Redis summary cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
			return cache.NewRedisCache[core.FinancialSummary](client, summaryCachePrefix, cfg.CacheTTL), func() {
				_ = client.Close()
			}
		}
		logger.Warn("Redis unavailable, falling back to in-process cache", "addr", cfg.RedisAddr, "error", err)
	}

	lru := cache.NewLRUCache[core.FinancialSummary](summaryCacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(summaryCleanupPeriod)
	logger.Info("Using in-process summary cache", "max_entries", summaryCacheSize, "ttl", cfg.CacheTTL)
	return lru, manager.Stop
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
