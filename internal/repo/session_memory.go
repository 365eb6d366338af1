package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type memorySession struct {
	data      []byte
	updatedAt time.Time
}

// sessionLock is a one-slot semaphore. refs counts holders and waiters; the entry is
// dropped when it reaches zero so the map only tracks sessions in use.
type sessionLock struct {
	sem  chan struct{}
	refs int
}

// MemorySessionRepository keeps sessions in process. Sessions are stored encoded so a
// loaded copy never aliases the saved one. A background sweeper evicts idle sessions.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]memorySession
	locks    map[uuid.UUID]*sessionLock
	ttl      time.Duration
	lockWait time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]memorySession),
		locks:    make(map[uuid.UUID]*sessionLock),
		ttl:      ttl,
		lockWait: 5 * time.Second,
		done:     make(chan struct{}),
	}
}

func (r *MemorySessionRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	var s Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}

	r.mu.Lock()
	r.sessions[s.ID] = memorySession{data: data, updatedAt: s.UpdatedAt}
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sessionLock{sem: make(chan struct{}, 1)}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	timer := time.NewTimer(r.lockWait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.sem
				r.release(id, l)
			})
		}, nil
	case <-timer.C:
		r.release(id, l)
		return nil, ErrSessionLocked
	case <-ctx.Done():
		r.release(id, l)
		return nil, ctx.Err()
	}
}

func (r *MemorySessionRepository) release(id uuid.UUID, l *sessionLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, id)
	}
}

// Len reports the number of stored sessions.
func (r *MemorySessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Start begins evicting sessions idle for longer than the TTL.
func (r *MemorySessionRepository) Start(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	r.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-r.ticker.C:
				if n := r.sweep(time.Now()); n > 0 {
					log.Debug().Int("evicted", n).Msg("Evicted idle sessions")
				}
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Dur("interval", interval).Dur("ttl", r.ttl).Msg("Session sweeper started")
}

// Stop stops the sweeper. Safe to call more than once.
func (r *MemorySessionRepository) Stop() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
		log.Info().Msg("Session sweeper stopped")
	})
}

// sweep evicts sessions last saved before now-ttl and returns how many were removed.
// Sessions whose lock is held or awaited are skipped.
func (r *MemorySessionRepository) sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.sessions {
		if !entry.updatedAt.Before(cutoff) {
			continue
		}
		if _, inUse := r.locks[id]; inUse {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}
