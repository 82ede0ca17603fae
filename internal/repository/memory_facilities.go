package repository

import (
	"context"
	"sort"
	"sync"

	"tailingsiq-risk/internal/domain"
)

// MemoryFacilitiesRepo in-memory facilities registry for tests and DB-less runs.
type MemoryFacilitiesRepo struct {
	mu         sync.RWMutex
	facilities map[string]domain.Facility // facilityID -> Facility
}

func NewMemoryFacilitiesRepo() *MemoryFacilitiesRepo {
	return &MemoryFacilitiesRepo{
		facilities: map[string]domain.Facility{},
	}
}

var _ FacilitiesRepository = (*MemoryFacilitiesRepo)(nil)

// Put registers or replaces a facility. Test seeding helper.
func (r *MemoryFacilitiesRepo) Put(facility domain.Facility) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities[facility.FacilityID] = facility
}

func (r *MemoryFacilitiesRepo) GetFacility(_ context.Context, facilityID string) (*domain.Facility, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.facilities[facilityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFacilitiesRepo) ListFacilities(_ context.Context, filters *domain.FacilityFilters) ([]domain.Facility, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Facility, 0, len(r.facilities))
	for _, f := range r.facilities {
		if filters != nil {
			if filters.Owner != "" && f.Owner != filters.Owner {
				continue
			}
			if filters.Status != "" && f.Status != filters.Status {
				continue
			}
			if filters.Type != "" && f.Type != filters.Type {
				continue
			}
		}
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	return all, nil
}
