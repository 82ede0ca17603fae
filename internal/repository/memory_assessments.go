package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/google/uuid"
)

// memoryAssessment carries the append sequence number used to break
// evaluated_at ties, mirroring the seq column of the Postgres ledger.
type memoryAssessment struct {
	domain.RiskAssessment
	seq uint64
}

// MemoryAssessmentsRepo in-memory append-only assessment ledger for tests
// and DB-less runs.
type MemoryAssessmentsRepo struct {
	mu          sync.RWMutex
	assessments map[string][]memoryAssessment // facilityID -> ledger entries
	nextSeq     uint64
}

func NewMemoryAssessmentsRepo() *MemoryAssessmentsRepo {
	return &MemoryAssessmentsRepo{
		assessments: map[string][]memoryAssessment{},
	}
}

var _ AssessmentsRepository = (*MemoryAssessmentsRepo)(nil)

func (r *MemoryAssessmentsRepo) AppendAssessment(_ context.Context, assessment *domain.RiskAssessment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := memoryAssessment{RiskAssessment: *assessment}
	if stored.AssessmentID == "" {
		stored.AssessmentID = uuid.New().String()
	}
	stored.CreatedAt = time.Now()
	r.nextSeq++
	stored.seq = r.nextSeq

	r.assessments[assessment.FacilityID] = append(r.assessments[assessment.FacilityID], stored)

	return stored.AssessmentID, nil
}

func (r *MemoryAssessmentsRepo) LatestAssessment(_ context.Context, facilityID string) (*domain.RiskAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.assessments[facilityID]
	if len(entries) == 0 {
		return nil, domain.ErrNotFound
	}

	latest := entries[0]
	for _, e := range entries[1:] {
		if e.EvaluatedAt.After(latest.EvaluatedAt) ||
			(e.EvaluatedAt.Equal(latest.EvaluatedAt) && e.seq > latest.seq) {
			latest = e
		}
	}

	result := latest.RiskAssessment
	return &result, nil
}

func (r *MemoryAssessmentsRepo) AssessmentHistory(_ context.Context, facilityID string, start, end time.Time) ([]domain.RiskAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []memoryAssessment
	for _, e := range r.assessments[facilityID] {
		if e.EvaluatedAt.Before(start) || e.EvaluatedAt.After(end) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].EvaluatedAt.Equal(matched[j].EvaluatedAt) {
			return matched[i].seq < matched[j].seq
		}
		return matched[i].EvaluatedAt.Before(matched[j].EvaluatedAt)
	})

	result := make([]domain.RiskAssessment, 0, len(matched))
	for _, e := range matched {
		result = append(result, e.RiskAssessment)
	}

	return result, nil
}
