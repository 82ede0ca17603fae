package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tailingsiq-risk/internal/config"
	"tailingsiq-risk/internal/domain"
	"tailingsiq-risk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingAssessor struct {
	mu       sync.Mutex
	assessed map[string]int
	failFor  string
}

func (a *countingAssessor) AssessFacility(_ context.Context, facilityID, requestedBy string) (*domain.RiskAssessment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.assessed == nil {
		a.assessed = make(map[string]int)
	}
	a.assessed[facilityID]++

	if facilityID == a.failFor {
		return nil, errors.New("assessment failed")
	}
	return &domain.RiskAssessment{
		FacilityID:  facilityID,
		RequestedBy: requestedBy,
		Level:       domain.RiskLevelLow,
	}, nil
}

func (a *countingAssessor) count(facilityID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assessed[facilityID]
}

func setupScheduler(t *testing.T) (*Scheduler, *repository.MemoryFacilitiesRepo) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Scheduler.PollInterval = time.Hour // 只依赖启动时的首轮

	facilities := repository.NewMemoryFacilitiesRepo()
	return NewScheduler(cfg, facilities, zap.NewNop()), facilities
}

func TestScheduler_AssessesActiveFacilitiesOnStartup(t *testing.T) {
	scheduler, facilities := setupScheduler(t)

	activeID := uuid.New().String()
	inactiveID := uuid.New().String()
	facilities.Put(domain.Facility{
		FacilityID: activeID,
		Name:       "North Impoundment",
		Type:       domain.FacilityTypeTailingsDam,
		Status:     domain.FacilityStatusActive,
	})
	facilities.Put(domain.Facility{
		FacilityID: inactiveID,
		Name:       "Legacy Cell",
		Type:       domain.FacilityTypeOther,
		Status:     domain.FacilityStatusDecommissioned,
	})

	assessor := &countingAssessor{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Start(ctx, assessor)
	}()

	require.Eventually(t, func() bool {
		return assessor.count(activeID) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	assert.Equal(t, 0, assessor.count(inactiveID))
}

func TestScheduler_FacilityFailureDoesNotBlockSweep(t *testing.T) {
	scheduler, facilities := setupScheduler(t)

	failingID := uuid.New().String()
	healthyID := uuid.New().String()
	facilities.Put(domain.Facility{
		FacilityID: failingID,
		Name:       "East Dam",
		Type:       domain.FacilityTypeTailingsDam,
		Status:     domain.FacilityStatusActive,
	})
	facilities.Put(domain.Facility{
		FacilityID: healthyID,
		Name:       "West Dam",
		Type:       domain.FacilityTypeTailingsDam,
		Status:     domain.FacilityStatusActive,
	})

	assessor := &countingAssessor{failFor: failingID}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Start(ctx, assessor)
	}()

	require.Eventually(t, func() bool {
		return assessor.count(failingID) >= 1 && assessor.count(healthyID) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
