package consumer

import (
	"context"
	"testing"
	"time"

	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCacheManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Cache.LatestKeyPrefix = "tailingsiq:facility:"
	cfg.Cache.LatestSuffix = ":assessment"
	cfg.Cache.LatestTTL = 300

	return NewCacheManager(cfg, client, zap.NewNop()), mr
}

func TestCacheManager_UpdateAndGetLatest(t *testing.T) {
	cm, _ := setupCacheManager(t)
	ctx := context.Background()

	facilityID := uuid.New().String()
	assessment := &domain.RiskAssessment{
		AssessmentID: uuid.New().String(),
		FacilityID:   facilityID,
		EvaluatedAt:  time.Now().UTC().Truncate(time.Second),
		Score:        42,
		Level:        domain.RiskLevelMedium,
		Factors: []domain.RiskFactor{
			{Category: "hydrological", Severity: domain.SeverityMedium, Description: "water level mean 12.00 m over 2 readings"},
		},
		Recommendations: []string{"Increase monitoring frequency"},
	}

	err := cm.UpdateLatestAssessment(ctx, assessment)
	require.NoError(t, err)

	cached, err := cm.GetLatestAssessment(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, assessment.AssessmentID, cached.AssessmentID)
	assert.Equal(t, assessment.Score, cached.Score)
	assert.Equal(t, assessment.Level, cached.Level)
	require.Len(t, cached.Factors, 1)
	assert.Equal(t, "hydrological", cached.Factors[0].Category)
}

func TestCacheManager_GetLatestMiss(t *testing.T) {
	cm, _ := setupCacheManager(t)

	_, err := cm.GetLatestAssessment(context.Background(), uuid.New().String())

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCacheManager_TTLApplied(t *testing.T) {
	cm, mr := setupCacheManager(t)
	ctx := context.Background()

	facilityID := uuid.New().String()
	err := cm.UpdateLatestAssessment(ctx, &domain.RiskAssessment{
		AssessmentID: uuid.New().String(),
		FacilityID:   facilityID,
		Score:        8,
		Level:        domain.RiskLevelLow,
	})
	require.NoError(t, err)

	key := "tailingsiq:facility:" + facilityID + ":assessment"
	assert.True(t, mr.Exists(key))

	mr.FastForward(301 * time.Second)
	assert.False(t, mr.Exists(key))
}
