package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAssessments_AppendLatestRoundTrip(t *testing.T) {
	repo := NewMemoryAssessmentsRepo()
	ctx := context.Background()
	facilityID := uuid.New().String()

	assessment := &domain.RiskAssessment{
		FacilityID:  facilityID,
		EvaluatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Score:       42,
		Level:       domain.RiskLevelMedium,
		Factors: []domain.RiskFactor{
			{Category: "structural", Severity: domain.SeverityMedium, Description: "pore pressure mean 55.00 kPa over 3 readings"},
		},
		Recommendations: []string{"Increase monitoring frequency", "Schedule structural inspection"},
	}

	id, err := repo.AppendAssessment(ctx, assessment)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	latest, err := repo.LatestAssessment(ctx, facilityID)
	require.NoError(t, err)
	assert.Equal(t, id, latest.AssessmentID)
	assert.Equal(t, assessment.Score, latest.Score)
	assert.Equal(t, assessment.Factors, latest.Factors)
	assert.Equal(t, assessment.Recommendations, latest.Recommendations)

	history, err := repo.AssessmentHistory(ctx, facilityID,
		assessment.EvaluatedAt.Add(-time.Hour), assessment.EvaluatedAt.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].AssessmentID)
}

func TestMemoryAssessments_LatestNotFound(t *testing.T) {
	repo := NewMemoryAssessmentsRepo()

	_, err := repo.LatestAssessment(context.Background(), uuid.New().String())

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryAssessments_ConcurrentAppendsAllRetrievableAndOrdered(t *testing.T) {
	repo := NewMemoryAssessmentsRepo()
	ctx := context.Background()
	facilityID := uuid.New().String()

	baseTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	const appenders = 20

	// 并发追加不能丢写，同一 evaluated_at 的条目按追加顺序稳定排序
	var wg sync.WaitGroup
	for i := 0; i < appenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AppendAssessment(ctx, &domain.RiskAssessment{
				FacilityID:  facilityID,
				EvaluatedAt: baseTime.Add(time.Duration(i%5) * time.Minute),
				Score:       i,
				Level:       domain.RiskLevelLow,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := repo.AssessmentHistory(ctx, facilityID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, appenders)

	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].EvaluatedAt.Before(history[i-1].EvaluatedAt),
			"history must be ascending by evaluated_at")
	}
}

func TestMemoryAssessments_HistoryWindowFiltering(t *testing.T) {
	repo := NewMemoryAssessmentsRepo()
	ctx := context.Background()
	facilityID := uuid.New().String()

	baseTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.AppendAssessment(ctx, &domain.RiskAssessment{
			FacilityID:  facilityID,
			EvaluatedAt: baseTime.Add(time.Duration(i) * time.Hour),
			Level:       domain.RiskLevelLow,
		})
		require.NoError(t, err)
	}

	history, err := repo.AssessmentHistory(ctx, facilityID, baseTime.Add(time.Hour), baseTime.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, baseTime.Add(time.Hour), history[0].EvaluatedAt)
	assert.Equal(t, baseTime.Add(3*time.Hour), history[2].EvaluatedAt)
}

func TestMemoryReadings_AppendAndQueryOrdered(t *testing.T) {
	repo := NewMemoryReadingsRepo()
	ctx := context.Background()
	facilityID := uuid.New().String()

	baseTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// 乱序追加：后到的读数时间戳更早
	_, err := repo.AppendReading(ctx, &domain.ValidatedReading{
		FacilityID: facilityID,
		Timestamp:  baseTime.Add(2 * time.Hour),
		Sensors:    map[string]float64{"pore-pressure": 12},
	})
	require.NoError(t, err)
	_, err = repo.AppendReading(ctx, &domain.ValidatedReading{
		FacilityID: facilityID,
		Timestamp:  baseTime.Add(1 * time.Hour),
		Sensors:    map[string]float64{"pore-pressure": 10},
	})
	require.NoError(t, err)

	readings, err := repo.QueryReadings(ctx, facilityID, baseTime, baseTime.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 10.0, readings[0].Sensors["pore-pressure"])
	assert.Equal(t, 12.0, readings[1].Sensors["pore-pressure"])
}
