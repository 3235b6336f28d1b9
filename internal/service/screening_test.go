package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
	"github.com/prushi369-byte/uspstf-screening/pkg/intake"
)

// fakeCache is an in-memory ResultCache with injectable failures.
type fakeCache struct {
	entries map[string][]domain.Recommendation
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]domain.Recommendation)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]domain.Recommendation, bool, error) {
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	recs, ok := f.entries[key]
	return recs, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, recommendations []domain.Recommendation) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = recommendations
	return nil
}

// fakeRepository is an in-memory EvaluationRepository with injectable
// failures.
type fakeRepository struct {
	records map[string]*domain.EvaluationRecord
	order   []string
	saveErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]*domain.EvaluationRecord)}
}

func (f *fakeRepository) Save(_ context.Context, record *domain.EvaluationRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[record.ID] = record
	f.order = append(f.order, record.ID)
	return nil
}

func (f *fakeRepository) Get(_ context.Context, id string) (*domain.EvaluationRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (f *fakeRepository) List(_ context.Context, limit, offset int) ([]*domain.EvaluationRecord, error) {
	var out []*domain.EvaluationRecord
	for i := len(f.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[f.order[i]])
	}
	return out, nil
}

func (f *fakeRepository) Count(_ context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestService(opts ...ServiceOption) *ScreeningService {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return NewScreeningService(logger, intake.NewParser(), opts...)
}

func smokerProfile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              55,
		Sex:              domain.MALE,
		SmokingStatus:    domain.CURRENT_SMOKER,
		CigarettesPerDay: 20,
		YearsSmoked:      30,
	}
}

func TestEvaluateProfile(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	result, err := svc.EvaluateProfile(ctx, smokerProfile())
	require.NoError(t, err)

	assert.Equal(t, 17, result.CatalogSize)
	assert.Equal(t, len(result.Recommendations), result.MatchedCount)
	assert.Greater(t, result.MatchedCount, 0)
	assert.False(t, result.FromCache)
	assert.InDelta(t, 30.0, result.Profile.PackYears, 0.001)
	assert.True(t, strings.HasPrefix(result.ProfileHash, "screening:result:"))

	_, err = uuid.Parse(result.EvaluationID)
	assert.NoError(t, err, "evaluation ID should be a UUID")
}

func TestEvaluateProfile_InvalidSex(t *testing.T) {
	svc := newTestService()

	profile := smokerProfile()
	profile.Sex = "unknown"

	_, err := svc.EvaluateProfile(context.Background(), profile)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSex)
}

func TestEvaluateProfile_CacheHitOnRepeat(t *testing.T) {
	fc := newFakeCache()
	svc := newTestService(WithResultCache(fc))
	ctx := context.Background()

	first, err := svc.EvaluateProfile(ctx, smokerProfile())
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, fc.sets)

	second, err := svc.EvaluateProfile(ctx, smokerProfile())
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, fc.sets, "a cache hit should not write back")
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.ProfileHash, second.ProfileHash)
	assert.NotEqual(t, first.EvaluationID, second.EvaluationID,
		"every evaluation gets its own ID even when served from cache")
}

func TestEvaluateProfile_CacheFailureDegrades(t *testing.T) {
	fc := newFakeCache()
	fc.getErr = errors.New("redis connection refused")
	fc.setErr = errors.New("redis connection refused")
	svc := newTestService(WithResultCache(fc))

	result, err := svc.EvaluateProfile(context.Background(), smokerProfile())
	require.NoError(t, err, "cache failures must not fail the evaluation")
	assert.False(t, result.FromCache)
	assert.Greater(t, result.MatchedCount, 0)
}

func TestEvaluateProfile_PersistsRecord(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(WithEvaluationRepository(repo))
	ctx := context.Background()

	result, err := svc.EvaluateProfile(ctx, smokerProfile())
	require.NoError(t, err)

	record, err := repo.Get(ctx, result.EvaluationID)
	require.NoError(t, err)

	assert.Equal(t, result.EvaluationID, record.ID)
	assert.Equal(t, result.MatchedCount, record.MatchedCount)
	assert.InDelta(t, 30.0, record.PackYears, 0.001)
	require.Len(t, record.MatchedTopics, len(result.Recommendations))
	for i, rec := range result.Recommendations {
		assert.Equal(t, rec.Name, record.MatchedTopics[i])
	}
}

func TestEvaluateProfile_PersistFailureIsSwallowed(t *testing.T) {
	repo := newFakeRepository()
	repo.saveErr = errors.New("connection reset by peer")
	svc := newTestService(WithEvaluationRepository(repo))

	result, err := svc.EvaluateProfile(context.Background(), smokerProfile())
	require.NoError(t, err, "history is best-effort")
	assert.Greater(t, result.MatchedCount, 0)
}

func TestEvaluateIntake(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("Valid_Fields", func(t *testing.T) {
		result, err := svc.EvaluateIntake(ctx, map[string]string{
			"sex":            "female",
			"age":            "63",
			"smoking_status": "never",
			"conditions":     "osteoporosis-risk",
		})
		require.NoError(t, err)

		assert.Contains(t, namesOf(result.Recommendations), "Osteoporosis")
	})

	t.Run("Invalid_Sex", func(t *testing.T) {
		_, err := svc.EvaluateIntake(ctx, map[string]string{"sex": "robot"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidSex)
	})
}

func TestHistoryOperations_Disabled(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	assert.False(t, svc.HistoryEnabled())

	_, err := svc.GetEvaluation(ctx, "some-id")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.ListEvaluations(ctx, 10, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.CountEvaluations(ctx)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	err = svc.DeleteEvaluation(ctx, "some-id")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestHistoryOperations_Delegate(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(WithEvaluationRepository(repo))
	ctx := context.Background()

	assert.True(t, svc.HistoryEnabled())

	first, err := svc.EvaluateProfile(ctx, smokerProfile())
	require.NoError(t, err)
	second, err := svc.EvaluateProfile(ctx, femaleProfile(63))
	require.NoError(t, err)

	count, err := svc.CountEvaluations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	records, err := svc.ListEvaluations(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.EvaluationID, records[0].ID, "newest first")

	require.NoError(t, svc.DeleteEvaluation(ctx, first.EvaluationID))
	_, err = svc.GetEvaluation(ctx, first.EvaluationID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog(t *testing.T) {
	svc := newTestService()

	entries := svc.Catalog()
	require.Len(t, entries, 17)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "Abdominal Aortic Aneurysm", entries[0].Topic)
}
