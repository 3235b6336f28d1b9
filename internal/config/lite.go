// Package config provides configuration for the screening servers: a
// Viper-backed Manager for the HTTP deployment and an environment-only
// LiteConfig for the standalone stdio server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Environment variables understood by the standalone server. Everything has a
// default, so a bare `mcp-server` run works with no configuration at all.
const (
	envDataDir       = "USPSTF_DATA_DIR"
	envCacheMaxItems = "USPSTF_CACHE_MAX_ITEMS"
	envCacheTTL      = "USPSTF_CACHE_TTL"
	envTransport     = "USPSTF_TRANSPORT"
	envHTTPPort      = "USPSTF_HTTP_PORT"
	envLogLevel      = "USPSTF_LOG_LEVEL"
	envLogFormat     = "USPSTF_LOG_FORMAT"
)

// LiteConfig configures the standalone stdio server. Unlike Manager it reads
// only the environment: no config files, no external services required.
type LiteConfig struct {
	DataDir string // base directory for the feedback db and exports

	CacheMaxItems int           // memory cache capacity
	CacheTTL      time.Duration // how long cached results stay valid

	Transport string // "stdio" or "http"
	HTTPPort  int    // listen port when Transport is "http"

	LogLevel  string // debug, info, warn, error
	LogFormat string // json or text
}

// DefaultLiteConfig returns the zero-configuration defaults.
func DefaultLiteConfig() *LiteConfig {
	home, _ := os.UserHomeDir()

	return &LiteConfig{
		DataDir:       filepath.Join(home, ".uspstf-screening"),
		CacheMaxItems: 1000,
		CacheTTL:      time.Hour,
		Transport:     "stdio",
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig applies environment overrides on top of the defaults.
// Malformed values are ignored rather than fatal; a bad override should not
// keep the server from starting.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	envString(envDataDir, &cfg.DataDir)
	envPositiveInt(envCacheMaxItems, &cfg.CacheMaxItems)
	envDuration(envCacheTTL, &cfg.CacheTTL)
	envString(envTransport, &cfg.Transport)
	envPositiveInt(envHTTPPort, &cfg.HTTPPort)
	envString(envLogLevel, &cfg.LogLevel)
	envString(envLogFormat, &cfg.LogFormat)

	return cfg
}

// FeedbackDBPath is where the SQLite feedback store lives.
func (c *LiteConfig) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, "feedback.db")
}

// ExportDir is where feedback exports are written.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory tree on first run.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.ExportDir(), 0755)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envPositiveInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
