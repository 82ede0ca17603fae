package repository

import (
	"context"
	"sync"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/google/uuid"
)

// MemoryReadingsRepo in-memory append-only time-series store for tests
// and DB-less runs.
type MemoryReadingsRepo struct {
	mu          sync.RWMutex
	readings    map[string][]domain.MonitoringReading // facilityID -> readings in append order
	lastCreated time.Time
}

func NewMemoryReadingsRepo() *MemoryReadingsRepo {
	return &MemoryReadingsRepo{
		readings: map[string][]domain.MonitoringReading{},
	}
}

var _ ReadingsRepository = (*MemoryReadingsRepo)(nil)

func (r *MemoryReadingsRepo) AppendReading(_ context.Context, reading *domain.ValidatedReading) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Ingestion time must be strictly increasing even within one clock tick.
	now := time.Now()
	if !now.After(r.lastCreated) {
		now = r.lastCreated.Add(time.Nanosecond)
	}
	r.lastCreated = now

	sensors := make(map[string]float64, len(reading.Sensors))
	for k, v := range reading.Sensors {
		sensors[k] = v
	}

	stored := domain.MonitoringReading{
		ReadingID:  uuid.New().String(),
		FacilityID: reading.FacilityID,
		Timestamp:  reading.Timestamp,
		Sensors:    sensors,
		CreatedAt:  now,
	}
	r.readings[reading.FacilityID] = append(r.readings[reading.FacilityID], stored)

	return stored.ReadingID, nil
}

func (r *MemoryReadingsRepo) QueryReadings(_ context.Context, facilityID string, start, end time.Time) ([]domain.MonitoringReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.MonitoringReading
	for _, reading := range r.readings[facilityID] {
		if reading.Timestamp.Before(start) || reading.Timestamp.After(end) {
			continue
		}
		result = append(result, reading)
	}
	domain.SortReadings(result)

	return result, nil
}

// Count returns the number of stored readings for a facility. Test helper.
func (r *MemoryReadingsRepo) Count(facilityID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.readings[facilityID])
}
