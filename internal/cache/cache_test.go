package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

func testRecommendations() []domain.Recommendation {
	return []domain.Recommendation{
		{
			Name:     "Hypertension",
			Test:     "Office blood pressure measurement",
			Interval: "every year",
			Grade:    domain.GRADE_A,
			Notes:    "All adults should have their blood pressure checked.",
		},
	}
}

func TestProfileKey(t *testing.T) {
	base := domain.PatientProfile{
		Age:           50,
		Sex:           domain.FEMALE,
		SmokingStatus: domain.NEVER_SMOKER,
		Conditions:    []domain.RiskFactor{domain.OVERWEIGHT, domain.STI_RISK},
	}

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, ProfileKey(base), ProfileKey(base))
	})

	t.Run("Condition_Order_Does_Not_Matter", func(t *testing.T) {
		reordered := base.Clone()
		reordered.Conditions = []domain.RiskFactor{domain.STI_RISK, domain.OVERWEIGHT}

		assert.Equal(t, ProfileKey(base), ProfileKey(reordered))
	})

	t.Run("Duplicate_Conditions_Collapse", func(t *testing.T) {
		duplicated := base.Clone()
		duplicated.Conditions = []domain.RiskFactor{
			domain.OVERWEIGHT, domain.OVERWEIGHT, domain.STI_RISK,
		}

		assert.Equal(t, ProfileKey(base), ProfileKey(duplicated))
	})

	t.Run("Different_Profiles_Differ", func(t *testing.T) {
		older := base.Clone()
		older.Age = 51

		assert.NotEqual(t, ProfileKey(base), ProfileKey(older))
	})

	t.Run("Key_Has_Namespace_Prefix", func(t *testing.T) {
		assert.Contains(t, ProfileKey(base), "screening:result:")
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss_Then_Hit", func(t *testing.T) {
		c, err := NewMemoryCache(10, time.Minute)
		require.NoError(t, err)

		_, found, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, c.Set(ctx, "k1", testRecommendations()))

		recommendations, found, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testRecommendations(), recommendations)
	})

	t.Run("Entries_Expire", func(t *testing.T) {
		c, err := NewMemoryCache(10, 5*time.Millisecond)
		require.NoError(t, err)

		require.NoError(t, c.Set(ctx, "k1", testRecommendations()))
		time.Sleep(20 * time.Millisecond)

		_, found, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, c.Len(), "expired entries are removed on read")
	})

	t.Run("Size_Bound_Evicts", func(t *testing.T) {
		c, err := NewMemoryCache(2, time.Minute)
		require.NoError(t, err)

		require.NoError(t, c.Set(ctx, "k1", testRecommendations()))
		require.NoError(t, c.Set(ctx, "k2", testRecommendations()))
		require.NoError(t, c.Set(ctx, "k3", testRecommendations()))

		assert.Equal(t, 2, c.Len())
	})

	t.Run("Defaults_Applied", func(t *testing.T) {
		c, err := NewMemoryCache(0, 0)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "k1", testRecommendations()))

		_, found, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestTieredCache(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing

	t.Run("Memory_Only_Round_Trip", func(t *testing.T) {
		memory, err := NewMemoryCache(10, time.Minute)
		require.NoError(t, err)

		tiered := NewTieredCache(memory, nil, logger)

		_, found, err := tiered.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, tiered.Set(ctx, "k1", testRecommendations()))

		recommendations, found, err := tiered.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testRecommendations(), recommendations)

		stats := tiered.GetStats()
		assert.Equal(t, int64(1), stats.MemoryHits)
		assert.Equal(t, int64(1), stats.MemoryMisses)
		assert.Equal(t, int64(1), stats.Sets)
	})

	t.Run("No_Tiers_Always_Misses", func(t *testing.T) {
		tiered := NewTieredCache(nil, nil, logger)

		require.NoError(t, tiered.Set(ctx, "k1", testRecommendations()))

		_, found, err := tiered.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
