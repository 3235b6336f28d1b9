package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

func TestFromDatabaseConfig(t *testing.T) {
	cfg := FromDatabaseConfig(domain.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "screening",
		Username: "svc",
	})

	if cfg.Host != "db.internal" || cfg.Port != 5433 {
		t.Errorf("Expected host and port to pass through, got %s:%d", cfg.Host, cfg.Port)
	}

	if cfg.MaxConns != 10 {
		t.Errorf("Expected default max conns 10, got %d", cfg.MaxConns)
	}

	if cfg.MinConns != 2 {
		t.Errorf("Expected default min conns 2, got %d", cfg.MinConns)
	}

	if cfg.MaxConnLife != time.Hour {
		t.Errorf("Expected default conn lifetime 1h, got %s", cfg.MaxConnLife)
	}

	if cfg.MaxConnIdle != 30*time.Minute {
		t.Errorf("Expected default idle time 30m, got %s", cfg.MaxConnIdle)
	}

	if cfg.SSLMode != "disable" {
		t.Errorf("Expected default sslmode disable, got %s", cfg.SSLMode)
	}

	explicit := FromDatabaseConfig(domain.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		Database:        "screening",
		Username:        "svc",
		MaxOpenConns:    40,
		MaxIdleConns:    8,
		ConnMaxLifetime: 2 * time.Hour,
		SSLMode:         "require",
	})

	if explicit.MaxConns != 40 || explicit.MinConns != 8 {
		t.Errorf("Expected explicit pool sizes to pass through, got max=%d min=%d", explicit.MaxConns, explicit.MinConns)
	}

	if explicit.MaxConnLife != 2*time.Hour {
		t.Errorf("Expected explicit conn lifetime to pass through, got %s", explicit.MaxConnLife)
	}

	if explicit.SSLMode != "require" {
		t.Errorf("Expected explicit sslmode to pass through, got %s", explicit.SSLMode)
	}
}

// startPostgres launches a disposable PostgreSQL container and returns a
// Config pointing at it.
func startPostgres(t *testing.T, ctx context.Context) Config {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return Config{
		Host:     host,
		Port:     port.Int(),
		Database: "testdb",
		Username: "testuser",
		Password: "testpass",
	}
}

func TestDatabaseConnection(t *testing.T) {
	if os.Getenv("TEST_CONTAINERS") == "" {
		t.Skip("TEST_CONTAINERS not set, skipping container-backed tests")
	}

	ctx := context.Background()
	config := startPostgres(t, ctx)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := NewConnection(ctx, config, logger)
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	defer db.Close()

	if err := db.Health(ctx); err != nil {
		t.Fatalf("Database health check failed: %v", err)
	}

	stats := db.Stats()
	if stats.TotalConns() == 0 {
		t.Error("Expected at least one connection in pool")
	}
}
