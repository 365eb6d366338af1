package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campaign-builder/internal/services/keywords"
)

// Plan is an accepted keyword plan: the active view of a session at accept time.
type Plan struct {
	ID          uuid.UUID         `json:"id"`
	SessionID   string            `json:"session_id,omitempty"`
	Description string            `json:"description"`
	Keywords    []keywords.Record `json:"keywords"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PlanRepository stores accepted plans. CreatePlan assigns ID and CreatedAt when unset.
type PlanRepository interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	// ListPlans returns up to limit plans, newest first.
	ListPlans(ctx context.Context, limit int) ([]Plan, error)
}

func preparePlan(p *Plan) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
