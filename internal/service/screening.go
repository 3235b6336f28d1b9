package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/cache"
	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// ErrHistoryDisabled is returned by history operations when the service runs
// without an evaluation repository.
var ErrHistoryDisabled = errors.New("evaluation history is not enabled")

// ScreeningService is the stateful shell around the pure rule engine. It
// validates input, consults the result cache, runs the evaluation, and
// persists an audit record when a repository is configured. Cache and
// repository failures degrade to logged warnings and never fail the
// evaluation itself.
type ScreeningService struct {
	logger     *logrus.Logger
	engine     *ScreeningRuleEngine
	parser     domain.ProfileParser
	cache      domain.ResultCache
	repository domain.EvaluationRepository
}

// ServiceOption configures optional collaborators on a ScreeningService.
type ServiceOption func(*ScreeningService)

// WithResultCache attaches an evaluation result cache.
func WithResultCache(c domain.ResultCache) ServiceOption {
	return func(s *ScreeningService) {
		s.cache = c
	}
}

// WithEvaluationRepository attaches an audit repository for evaluation
// history.
func WithEvaluationRepository(r domain.EvaluationRepository) ServiceOption {
	return func(s *ScreeningService) {
		s.repository = r
	}
}

// NewScreeningService creates a new screening service.
func NewScreeningService(logger *logrus.Logger, parser domain.ProfileParser, opts ...ServiceOption) *ScreeningService {
	s := &ScreeningService{
		logger: logger,
		engine: NewScreeningRuleEngine(logger),
		parser: parser,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EvaluateProfile runs the full evaluation workflow for a typed profile.
func (s *ScreeningService) EvaluateProfile(ctx context.Context, profile domain.PatientProfile) (*domain.ScreeningResult, error) {
	startTime := time.Now()

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid screening request: %w", err)
	}

	s.logger.WithFields(logrus.Fields(profile.LogFields())).Info("Starting screening evaluation")

	// Derive once so the cache key and the stored record see the same
	// normalized numerics the engine evaluates against.
	derived := Derive(profile)
	cacheKey := cache.ProfileKey(derived.PatientProfile)

	var (
		recommendations []domain.Recommendation
		fromCache       bool
	)

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.WithError(err).Warn("Result cache lookup failed, evaluating directly")
		} else if found {
			recommendations = cached
			fromCache = true
		}
	}

	if !fromCache {
		recommendations = s.engine.Evaluate(profile)

		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, recommendations); err != nil {
				s.logger.WithError(err).Warn("Failed to cache evaluation result")
			}
		}
	}

	result := &domain.ScreeningResult{
		EvaluationID:    uuid.New().String(),
		Profile:         derived,
		ProfileHash:     cacheKey,
		Recommendations: recommendations,
		MatchedCount:    len(recommendations),
		CatalogSize:     s.engine.Size(),
		FromCache:       fromCache,
		ProcessingTime:  time.Since(startTime),
		Timestamp:       time.Now().UTC(),
	}

	if s.repository != nil {
		s.persistRecord(ctx, result)
	}

	s.logger.WithFields(logrus.Fields{
		"evaluation_id":   result.EvaluationID,
		"matched_count":   result.MatchedCount,
		"catalog_size":    result.CatalogSize,
		"from_cache":      result.FromCache,
		"processing_time": result.ProcessingTime,
	}).Info("Screening evaluation completed")

	return result, nil
}

// EvaluateIntake parses raw boundary fields into a profile and evaluates it.
func (s *ScreeningService) EvaluateIntake(ctx context.Context, fields map[string]string) (*domain.ScreeningResult, error) {
	if s.parser == nil {
		return nil, fmt.Errorf("no profile parser configured")
	}

	profile, err := s.parser.Parse(fields)
	if err != nil {
		return nil, fmt.Errorf("intake parsing: %w", err)
	}

	return s.EvaluateProfile(ctx, profile)
}

// Catalog returns the static rule catalog for discovery surfaces.
func (s *ScreeningService) Catalog() []domain.CatalogEntry {
	return s.engine.Catalog()
}

// HistoryEnabled reports whether an evaluation repository is configured.
func (s *ScreeningService) HistoryEnabled() bool {
	return s.repository != nil
}

// GetEvaluation loads one stored evaluation record by ID.
func (s *ScreeningService) GetEvaluation(ctx context.Context, id string) (*domain.EvaluationRecord, error) {
	if s.repository == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repository.Get(ctx, id)
}

// ListEvaluations pages through stored evaluation records, newest first.
func (s *ScreeningService) ListEvaluations(ctx context.Context, limit, offset int) ([]*domain.EvaluationRecord, error) {
	if s.repository == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repository.List(ctx, limit, offset)
}

// CountEvaluations returns the number of stored evaluation records.
func (s *ScreeningService) CountEvaluations(ctx context.Context) (int64, error) {
	if s.repository == nil {
		return 0, ErrHistoryDisabled
	}
	return s.repository.Count(ctx)
}

// DeleteEvaluation removes one stored evaluation record by ID.
func (s *ScreeningService) DeleteEvaluation(ctx context.Context, id string) error {
	if s.repository == nil {
		return ErrHistoryDisabled
	}
	return s.repository.Delete(ctx, id)
}

// persistRecord writes the audit row for a completed evaluation. Failures
// are logged and swallowed; history is best-effort.
func (s *ScreeningService) persistRecord(ctx context.Context, result *domain.ScreeningResult) {
	topics := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		topics = append(topics, rec.Name)
	}

	record := &domain.EvaluationRecord{
		ID:              result.EvaluationID,
		Profile:         result.Profile.PatientProfile,
		PackYears:       result.Profile.PackYears,
		Recommendations: result.Recommendations,
		MatchedTopics:   topics,
		MatchedCount:    result.MatchedCount,
		CreatedAt:       result.Timestamp,
	}

	if err := s.repository.Save(ctx, record); err != nil {
		s.logger.WithError(err).WithField("evaluation_id", record.ID).Warn("Failed to persist evaluation record")
	}
}
