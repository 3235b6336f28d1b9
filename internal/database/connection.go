package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// Config holds pool settings for the evaluation-history database.
type Config struct {
	Host        string
	Port        int
	Database    string
	Username    string
	Password    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	SSLMode     string
}

// withDefaults fills unset pool knobs. Connection identity fields are left
// alone; only sizing and SSL mode carry defaults.
func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.MaxConnLife <= 0 {
		c.MaxConnLife = time.Hour
	}
	if c.MaxConnIdle <= 0 {
		c.MaxConnIdle = 30 * time.Minute
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return c
}

// dsn renders the config as a pgx keyword/value connection string.
func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode,
	)
}

// FromDatabaseConfig maps the application-level history settings onto pool
// configuration, with pool defaults filled in.
func FromDatabaseConfig(cfg domain.DatabaseConfig) Config {
	return Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Database:    cfg.Database,
		Username:    cfg.Username,
		Password:    cfg.Password,
		MaxConns:    int32(cfg.MaxOpenConns),
		MinConns:    int32(cfg.MaxIdleConns),
		MaxConnLife: cfg.ConnMaxLifetime,
		SSLMode:     cfg.SSLMode,
	}.withDefaults()
}

// DB owns the pgx connection pool for evaluation history.
type DB struct {
	Pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewConnection opens a pool against config and verifies it with a ping, so
// a misconfigured database fails at startup rather than on first query.
func NewConnection(ctx context.Context, config Config, logger *logrus.Logger) (*DB, error) {
	config = config.withDefaults()

	poolConfig, err := pgxpool.ParseConfig(config.dsn())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = config.MinConns
	poolConfig.MaxConnLifetime = config.MaxConnLife
	poolConfig.MaxConnIdleTime = config.MaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":     config.Host,
		"port":     config.Port,
		"database": config.Database,
		"pool":     fmt.Sprintf("%d-%d", config.MinConns, config.MaxConns),
	}).Info("Connected to evaluation-history database")

	return &DB{Pool: pool, log: logger}, nil
}

// Close shuts the pool down.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("Evaluation-history database closed")
	}
}

// Health pings the pool.
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats exposes pool counters for diagnostics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
