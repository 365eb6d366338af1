package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campaign-builder/internal/services/keywords"
)

// Session is one caller's planning state: the last description and its keyword store.
type Session struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Store       *keywords.Store `json:"store"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewSession returns a session with a fresh ID and an empty store.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Store:     keywords.NewStore(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SessionRepository persists sessions between requests. Get always returns a private
// copy, so changes are visible to other callers only after Save.
type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Lock serialises actions on one session. The returned func releases the lock.
	Lock(ctx context.Context, id uuid.UUID) (func(), error)
}
