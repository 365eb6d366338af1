package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"campaign-builder/internal/services/keywords"
)

// MemoryPlanRepository is the in-process fallback used when no database is configured.
type MemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]Plan
}

func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[uuid.UUID]Plan)}
}

func (r *MemoryPlanRepository) CreatePlan(ctx context.Context, p *Plan) error {
	preparePlan(p)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = clonePlan(*p)
	return nil
}

func (r *MemoryPlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	out := clonePlan(p)
	return &out, nil
}

func (r *MemoryPlanRepository) ListPlans(ctx context.Context, limit int) ([]Plan, error) {
	r.mu.RLock()
	plans := make([]Plan, 0, len(r.plans))
	for _, p := range r.plans {
		plans = append(plans, clonePlan(p))
	}
	r.mu.RUnlock()

	sort.Slice(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID.String() < plans[j].ID.String()
		}
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	if limit > 0 && len(plans) > limit {
		plans = plans[:limit]
	}
	return plans, nil
}

func clonePlan(p Plan) Plan {
	p.Keywords = append([]keywords.Record(nil), p.Keywords...)
	return p
}
