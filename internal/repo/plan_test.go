package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-builder/internal/services/keywords"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, connString)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(connString))

	db.pool.Exec(ctx, "DELETE FROM plan_keywords")
	db.pool.Exec(ctx, "DELETE FROM keyword_plans")
	t.Cleanup(func() {
		db.pool.Exec(ctx, "DELETE FROM plan_keywords")
		db.pool.Exec(ctx, "DELETE FROM keyword_plans")
		db.Close()
	})
	return db
}

func planRepositories(t *testing.T) map[string]func(t *testing.T) PlanRepository {
	return map[string]func(t *testing.T) PlanRepository{
		"memory": func(t *testing.T) PlanRepository { return NewMemoryPlanRepository() },
		"postgres": func(t *testing.T) PlanRepository {
			return NewPostgresPlanRepository(setupTestDB(t))
		},
	}
}

func samplePlan(desc string, createdAt time.Time) *Plan {
	return &Plan{
		SessionID:   uuid.NewString(),
		Description: desc,
		Keywords: []keywords.Record{
			{Keyword: "organic coffee beans", AdGroup: "Coffee"},
			{Keyword: "pour over kettle", AdGroup: "Equipment"},
			{Keyword: "organic coffee beans", AdGroup: "Coffee"},
		},
		CreatedAt: createdAt,
	}
}

func TestPlanRepository_CreateGet(t *testing.T) {
	for name, newRepo := range planRepositories(t) {
		t.Run(name, func(t *testing.T) {
			r := newRepo(t)
			ctx := context.Background()

			p := samplePlan("coffee shop", time.Time{})
			require.NoError(t, r.CreatePlan(ctx, p))
			assert.NotEqual(t, uuid.Nil, p.ID)
			assert.False(t, p.CreatedAt.IsZero())

			got, err := r.GetPlan(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p.ID, got.ID)
			assert.Equal(t, p.SessionID, got.SessionID)
			assert.Equal(t, "coffee shop", got.Description)
			assert.Equal(t, p.Keywords, got.Keywords, "order and duplicates preserved")
		})
	}
}

func TestPlanRepository_GetNotFound(t *testing.T) {
	for name, newRepo := range planRepositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := newRepo(t).GetPlan(context.Background(), uuid.New())
			assert.ErrorIs(t, err, ErrPlanNotFound)
		})
	}
}

func TestPlanRepository_ListNewestFirst(t *testing.T) {
	for name, newRepo := range planRepositories(t) {
		t.Run(name, func(t *testing.T) {
			r := newRepo(t)
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			older := samplePlan("older", base.Add(-time.Hour))
			newer := samplePlan("newer", base)
			require.NoError(t, r.CreatePlan(ctx, older))
			require.NoError(t, r.CreatePlan(ctx, newer))

			plans, err := r.ListPlans(ctx, 10)
			require.NoError(t, err)
			require.Len(t, plans, 2)
			assert.Equal(t, "newer", plans[0].Description)
			assert.Equal(t, "older", plans[1].Description)
			assert.Len(t, plans[1].Keywords, 3)

			limited, err := r.ListPlans(ctx, 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, newer.ID, limited[0].ID)
		})
	}
}

func TestMemoryPlanRepository_ReturnsCopies(t *testing.T) {
	r := NewMemoryPlanRepository()
	ctx := context.Background()

	p := samplePlan("copy", time.Time{})
	require.NoError(t, r.CreatePlan(ctx, p))
	p.Keywords[0].Keyword = "mutated"

	got, err := r.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "organic coffee beans", got.Keywords[0].Keyword)
}
