package seo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// SnapshotCache is the subset of the cache the fetcher needs.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedFetcher wraps a Fetcher with a shared snapshot cache. Concurrent fetches of the
// same URL share one upstream request, which is not tied to any single caller's
// cancellation. Failures are never cached.
type CachedFetcher struct {
	next    Fetcher
	cache   SnapshotCache
	ttl     time.Duration
	timeout time.Duration
	keyFn   func(string) string
	group   singleflight.Group
}

// NewCachedFetcher creates a CachedFetcher. keyFn maps a URL to its cache key.
func NewCachedFetcher(next Fetcher, cache SnapshotCache, ttl time.Duration, keyFn func(string) string) *CachedFetcher {
	return &CachedFetcher{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		timeout: defaultTimeout,
		keyFn:   keyFn,
	}
}

// WithTimeout bounds the shared upstream fetch.
func (c *CachedFetcher) WithTimeout(d time.Duration) *CachedFetcher {
	if d > 0 {
		c.timeout = d
	}
	return c
}

type fetchResult struct {
	snapshot Snapshot
	err      error
}

func (c *CachedFetcher) Fetch(ctx context.Context, pageURL string) (Snapshot, error) {
	key := c.keyFn(pageURL)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var s Snapshot
		if err := json.Unmarshal(data, &s); err == nil {
			log.Debug().Str("url", pageURL).Msg("SEO snapshot cache hit")
			return s, nil
		}
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// the shared fetch outlives any one caller; each caller still stops waiting on its own ctx
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		s, err := c.next.Fetch(fetchCtx, pageURL)
		if err == nil {
			if err := c.cache.Set(fetchCtx, key, s, c.ttl); err != nil {
				log.Warn().Err(err).Str("url", pageURL).Msg("Failed to cache SEO snapshot")
			}
		}
		return fetchResult{snapshot: s, err: err}, nil
	})

	select {
	case res := <-ch:
		r := res.Val.(fetchResult)
		return r.snapshot, r.err
	case <-ctx.Done():
		err := &FetchError{URL: pageURL, Cause: ctx.Err()}
		return ErrorSnapshot(pageURL, err), err
	}
}
