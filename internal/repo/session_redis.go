package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campaign-builder/internal/cache"
)

// RedisSessionRepository keeps sessions as JSON documents in Redis with a sliding TTL.
type RedisSessionRepository struct {
	cache    *cache.RedisCache
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
}

// NewRedisSessionRepository creates the repository. lockTTL should exceed the longest
// action; the lock is also extended while held.
func NewRedisSessionRepository(c *cache.RedisCache, ttl, lockTTL time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = cache.SessionTTL
	}
	if lockTTL <= 0 {
		lockTTL = cache.LockTTL
	}
	return &RedisSessionRepository{
		cache:    c,
		ttl:      ttl,
		lockTTL:  lockTTL,
		lockWait: 5 * time.Second,
	}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := r.cache.Get(ctx, cache.SessionKey(id.String()))
	if errors.Is(err, cache.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if s.Store == nil {
		return nil, fmt.Errorf("session %s has no keyword store", id)
	}
	return &s, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	if err := r.cache.Set(ctx, cache.SessionKey(s.ID.String()), s, r.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	key := cache.SessionKey(id.String())
	exists, err := r.cache.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	return r.cache.Del(ctx, key)
}

func (r *RedisSessionRepository) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	unlock, err := r.cache.Lock(ctx, cache.SessionLockKey(id.String()), r.lockTTL, r.lockWait)
	if errors.Is(err, cache.ErrLockTimeout) {
		return nil, ErrSessionLocked
	}
	return unlock, err
}
