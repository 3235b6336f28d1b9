package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/api"
	"github.com/prushi369-byte/uspstf-screening/internal/cache"
	"github.com/prushi369-byte/uspstf-screening/internal/config"
	"github.com/prushi369-byte/uspstf-screening/internal/database"
	"github.com/prushi369-byte/uspstf-screening/internal/domain"
	"github.com/prushi369-byte/uspstf-screening/internal/feedback"
	"github.com/prushi369-byte/uspstf-screening/internal/repository"
	"github.com/prushi369-byte/uspstf-screening/internal/service"
	"github.com/prushi369-byte/uspstf-screening/pkg/intake"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a schema migration command (up, down, version) and exit")
	flag.Parse()

	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-off migration commands run and exit without starting the server
	if *migrateCmd != "" {
		runMigrationCommand(ctx, *migrateCmd, configManager, logger)
		return
	}

	var serviceOpts []service.ServiceOption
	var serverOpts []api.Option

	// Evaluation history is optional; without it the server runs evaluate-only
	if cfg.Database.Enabled {
		db, err := database.NewConnection(ctx, database.FromDatabaseConfig(cfg.Database), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		runMigrationCommand(ctx, "up", configManager, logger)

		repo := repository.NewEvaluationRepository(db.Pool, logger)
		serviceOpts = append(serviceOpts, service.WithEvaluationRepository(repo))
	}

	// Result cache; the Redis tier joins only when a URL is configured
	if cfg.Cache.Enabled {
		memCache, err := cache.NewMemoryCache(cfg.Cache.MemorySize, cfg.Cache.MemoryTTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create memory cache")
		}

		var redisCache *cache.RedisCache
		if cfg.Cache.RedisURL != "" {
			redisCache, err = cache.NewRedisCache(cfg.Cache, logger)
			if err != nil {
				logger.WithError(err).Warn("Redis cache unavailable, continuing with memory tier only")
				redisCache = nil
			}
		}

		tiered := cache.NewTieredCache(memCache, redisCache, logger)
		serviceOpts = append(serviceOpts, service.WithResultCache(tiered))
		serverOpts = append(serverOpts, api.WithCacheStats(tiered.GetStats))
	}

	// Feedback store
	if cfg.Feedback.Enabled {
		store, err := newFeedbackStore(cfg, configManager)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create feedback store")
		}
		defer store.Close()

		serverOpts = append(serverOpts, api.WithFeedbackStore(store))
	}

	screening := service.NewScreeningService(logger, intake.NewParser(), serviceOpts...)
	server := api.NewServer(configManager, logger, screening, serverOpts...)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting USPSTF screening server")

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// runMigrationCommand executes a single schema command against the configured
// database. "up" also runs automatically at startup when history is enabled;
// "down" and "version" exist for deploy tooling.
func runMigrationCommand(ctx context.Context, command string, configManager *config.Manager, logger *logrus.Logger) {
	cfg := configManager.GetDatabaseConfig()

	runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	defer runner.Close()

	switch command {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "version":
		var version uint
		var dirty bool
		if version, dirty, err = runner.Version(); err == nil {
			logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current schema version")
		}
	default:
		logger.Fatalf("Unknown migration command %q (want up, down, or version)", command)
	}
	if err != nil {
		logger.WithError(err).Fatal("Migration command failed")
	}
}

// newFeedbackStore selects the feedback backend by configured driver.
func newFeedbackStore(cfg *domain.Config, configManager *config.Manager) (feedback.Store, error) {
	switch cfg.Feedback.Driver {
	case "postgres":
		return feedback.NewPostgresStoreFromURL(configManager.GetDatabaseConnectionString())
	default:
		return feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
	}
}
