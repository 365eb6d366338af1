package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)

	s := NewSession()
	s.Description = "organic coffee roaster"
	_, err := s.Store.Add("fair trade coffee", "Coffee")
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, s))

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "organic coffee roaster", got.Description)
	assert.Equal(t, s.Store.Entries(), got.Store.Entries())
}

func TestMemorySessionRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)

	s := NewSession()
	require.NoError(t, r.Save(ctx, s))

	loaded, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	_, err = loaded.Store.Add("unsaved", "Group")
	require.NoError(t, err)

	again, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Store.Len(), "changes are invisible until saved")
}

func TestMemorySessionRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)

	_, err := r.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(ctx, uuid.New()), ErrSessionNotFound)
}

func TestMemorySessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)

	s := NewSession()
	require.NoError(t, r.Save(ctx, s))
	require.NoError(t, r.Delete(ctx, s.ID))

	_, err := r.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_Lock(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)
	r.lockWait = 50 * time.Millisecond
	id := uuid.New()

	unlock, err := r.Lock(ctx, id)
	require.NoError(t, err)

	_, err = r.Lock(ctx, id)
	assert.ErrorIs(t, err, ErrSessionLocked)

	other, err := r.Lock(ctx, uuid.New())
	require.NoError(t, err, "other sessions are independent")
	other()

	unlock()
	unlock()

	again, err := r.Lock(ctx, id)
	require.NoError(t, err)
	again()
}

func TestMemorySessionRepository_LockWaitsForRelease(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)
	id := uuid.New()

	unlock, err := r.Lock(ctx, id)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		unlock()
	}()

	second, err := r.Lock(ctx, id)
	require.NoError(t, err)
	second()
}

func TestMemorySessionRepository_Sweep(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Minute)

	idle := NewSession()
	busy := NewSession()
	require.NoError(t, r.Save(ctx, idle))
	require.NoError(t, r.Save(ctx, busy))

	unlock, err := r.Lock(ctx, busy.ID)
	require.NoError(t, err)
	defer unlock()

	assert.Equal(t, 0, r.sweep(time.Now()))
	assert.Equal(t, 1, r.sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 1, r.Len())

	_, err = r.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_StartStop(t *testing.T) {
	r := NewMemorySessionRepository(time.Millisecond)
	require.NoError(t, r.Save(context.Background(), NewSession()))

	r.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
}

func (r *MemorySessionRepository) lockEntries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

func TestMemorySessionRepository_LockEntriesAreReclaimed(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Minute)

	for i := 0; i < 1000; i++ {
		unlock, err := r.Lock(ctx, uuid.New())
		require.NoError(t, err)
		unlock()
	}
	assert.Equal(t, 0, r.lockEntries(), "unknown session ids leave nothing behind")

	s := NewSession()
	require.NoError(t, r.Save(ctx, s))
	unlock, err := r.Lock(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.lockEntries())
	require.NoError(t, r.Delete(ctx, s.ID))
	unlock()
	r.sweep(time.Now().Add(time.Hour))

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.lockEntries())
}

func TestMemorySessionRepository_LockEntryKeptForWaiters(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Hour)
	r.lockWait = 50 * time.Millisecond
	id := uuid.New()

	unlock, err := r.Lock(ctx, id)
	require.NoError(t, err)

	_, err = r.Lock(ctx, id)
	assert.ErrorIs(t, err, ErrSessionLocked)
	assert.Equal(t, 1, r.lockEntries(), "a timed out waiter does not drop the holder's entry")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Lock(cancelled, id)
	assert.Error(t, err)
	assert.Equal(t, 1, r.lockEntries())

	_, err = r.Lock(ctx, id)
	assert.ErrorIs(t, err, ErrSessionLocked, "the holder still excludes others")

	unlock()
	assert.Equal(t, 0, r.lockEntries())
}
