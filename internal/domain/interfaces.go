package domain

import (
	"context"
)

// ProfileParser builds a typed patient profile from raw boundary field text,
// applying the documented defaulting and normalization rules.
type ProfileParser interface {
	Parse(fields map[string]string) (PatientProfile, error)
}

// EvaluationRepository defines the interface for evaluation audit
// persistence. All methods are optional at the service layer: a nil
// repository means evaluate-only operation.
type EvaluationRepository interface {
	Save(ctx context.Context, record *EvaluationRecord) error
	Get(ctx context.Context, id string) (*EvaluationRecord, error)
	List(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ResultCache caches evaluation results keyed by profile identity. Found is
// false on a miss; errors indicate a degraded tier, never a failed
// evaluation.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Recommendation, bool, error)
	Set(ctx context.Context, key string, recommendations []Recommendation) error
}

// ConfigManager defines the interface for configuration management.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetCacheConfig() *CacheConfig
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
}
