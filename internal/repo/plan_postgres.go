package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campaign-builder/internal/services/keywords"
)

// PostgresPlanRepository stores plans in keyword_plans and their ordered rows in plan_keywords.
type PostgresPlanRepository struct {
	db *DB
}

func NewPostgresPlanRepository(db *DB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

func (r *PostgresPlanRepository) CreatePlan(ctx context.Context, p *Plan) error {
	preparePlan(p)

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO keyword_plans (id, session_id, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.SessionID, p.Description, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rec := range p.Keywords {
		batch.Queue(`
			INSERT INTO plan_keywords (plan_id, position, keyword, ad_group)
			VALUES ($1, $2, $3, $4)
		`, p.ID, i, rec.Keyword, rec.AdGroup)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert plan keywords: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, session_id, description, created_at
		FROM keyword_plans
		WHERE id = $1
	`, id).Scan(&p.ID, &p.SessionID, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT keyword, ad_group
		FROM plan_keywords
		WHERE plan_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan keywords: %w", err)
	}
	defer rows.Close()

	p.Keywords = []keywords.Record{}
	for rows.Next() {
		var rec keywords.Record
		if err := rows.Scan(&rec.Keyword, &rec.AdGroup); err != nil {
			return nil, err
		}
		p.Keywords = append(p.Keywords, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPlanRepository) ListPlans(ctx context.Context, limit int) ([]Plan, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT p.id, p.session_id, p.description, p.created_at, k.keyword, k.ad_group
		FROM (
			SELECT id, session_id, description, created_at
			FROM keyword_plans
			ORDER BY created_at DESC, id
			LIMIT $1
		) p
		LEFT JOIN plan_keywords k ON k.plan_id = p.id
		ORDER BY p.created_at DESC, p.id, k.position
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var (
			id                     uuid.UUID
			sessionID, description string
			createdAt              time.Time
			keyword, adGroup       *string
		)
		if err := rows.Scan(&id, &sessionID, &description, &createdAt, &keyword, &adGroup); err != nil {
			return nil, err
		}

		if len(plans) == 0 || plans[len(plans)-1].ID != id {
			plans = append(plans, Plan{
				ID:          id,
				SessionID:   sessionID,
				Description: description,
				Keywords:    []keywords.Record{},
				CreatedAt:   createdAt,
			})
		}
		if keyword != nil && adGroup != nil {
			last := &plans[len(plans)-1]
			last.Keywords = append(last.Keywords, keywords.Record{Keyword: *keyword, AdGroup: *adGroup})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}
