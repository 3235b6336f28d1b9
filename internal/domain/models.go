package domain

import (
	"time"
)

// Request/Response Models

// ScreeningRequest represents an incoming evaluation request carrying an
// already-typed patient profile.
type ScreeningRequest struct {
	Profile       PatientProfile    `json:"profile"`
	ClientContext map[string]string `json:"client_context,omitempty"`
}

// IntakeRequest represents an evaluation request carrying raw form fields
// exactly as collected at the boundary, before any parsing or defaulting.
type IntakeRequest struct {
	Fields map[string]string `json:"fields"`
}

// ScreeningResult represents the outcome of one service-level evaluation.
// The Recommendations slice preserves catalog order; MatchedCount equals its
// length and is carried separately for queries over stored records.
// ProfileHash is the cache identity of the normalized profile; feedback
// submissions reference it to tie an opinion to the exact profile evaluated.
type ScreeningResult struct {
	EvaluationID    string           `json:"evaluation_id"`
	Profile         DerivedProfile   `json:"profile"`
	ProfileHash     string           `json:"profile_hash"`
	Recommendations []Recommendation `json:"recommendations"`
	MatchedCount    int              `json:"matched_count"`
	CatalogSize     int              `json:"catalog_size"`
	FromCache       bool             `json:"from_cache"`
	ProcessingTime  time.Duration    `json:"processing_time"`
	Timestamp       time.Time        `json:"timestamp"`
}

// CatalogEntry describes one rule of the static catalog for discovery
// surfaces. Position is the fixed evaluation (and output) order, starting
// at 1.
type CatalogEntry struct {
	Position int     `json:"position"`
	Topic    string  `json:"topic"`
	Grades   []Grade `json:"grades"`
	Summary  string  `json:"summary"`
}

// Database Models

// EvaluationRecord is a stored audit row for one evaluation performed by the
// server. The engine itself never persists anything; records exist only when
// a repository is configured at the service layer.
type EvaluationRecord struct {
	ID              string           `json:"id"`
	Profile         PatientProfile   `json:"profile"`
	PackYears       float64          `json:"pack_years"`
	Recommendations []Recommendation `json:"recommendations"`
	MatchedTopics   []string         `json:"matched_topics"`
	MatchedCount    int              `json:"matched_count"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Configuration Models

// Config represents the main application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	CertFile        string        `mapstructure:"cert_file"`
	KeyFile         string        `mapstructure:"key_file"`
}

// DatabaseConfig represents the evaluation-history database configuration.
// When Enabled is false the server runs evaluate-only, with no audit trail.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// FeedbackConfig represents the user-feedback store configuration.
// Driver selects "postgres" (shared with the history database) or "sqlite"
// (local file, the lite default).
type FeedbackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig represents the evaluation result cache configuration.
// The memory tier is always available when the cache is enabled; the Redis
// tier participates only when RedisURL is non-empty.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	MemorySize int           `mapstructure:"memory_size"`
	MemoryTTL  time.Duration `mapstructure:"memory_ttl"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
