package seo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head>
<title>Boise Sports Psychology</title>
<meta name="description" content="Mental performance coaching for athletes.">
<meta name="keywords" content="sports psychologist, mental coach">
</head><body>
<h1>Perform at your best</h1>
<p>One-on-one coaching and team workshops.</p>
<p>   </p>
<h2>Services</h2>
<div>Ignored block</div>
<h3>Contact</h3>
</body></html>`

func TestHTTPFetcher_ExtractsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")
	s, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, s.URL)
	assert.Equal(t, "Boise Sports Psychology", s.Title)
	assert.Equal(t, "Mental performance coaching for athletes.", s.MetaDescription)
	assert.Equal(t, "sports psychologist, mental coach", s.MetaKeywords)
	assert.Equal(t, "Perform at your best\n\nOne-on-one coaching and team workshops.\n\nServices\n\nContact", s.PageText)
}

func TestHTTPFetcher_NotFoundYieldsErrorSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "")
	s, err := f.Fetch(context.Background(), srv.URL+"/missing")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)

	for _, field := range []string{s.Title, s.MetaDescription, s.MetaKeywords, s.PageText} {
		assert.True(t, strings.HasPrefix(field, "Page could not be fetched"), field)
	}
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "example.com"},
		{"ftp", "ftp://example.com"},
		{"javascript", "javascript:alert(1)"},
		{"scheme only", "https://"},
	}

	f := NewHTTPFetcher(time.Second, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := f.Fetch(context.Background(), tt.url)
			assert.True(t, IsFetchError(err))
			assert.ErrorIs(t, err, ErrInvalidURL)
			assert.NotEmpty(t, s.Title)
		})
	}
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(time.Second, "")
	s, err := f.Fetch(context.Background(), url)
	assert.True(t, IsFetchError(err))
	assert.NotEmpty(t, s.PageText)
}

func TestParseDocument_Placeholders(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div>nothing useful</div></body></html>`))
	require.NoError(t, err)

	s := ParseDocument(doc)
	assert.Equal(t, NoTitle, s.Title)
	assert.Equal(t, NoMetaDescription, s.MetaDescription)
	assert.Equal(t, NoMetaKeywords, s.MetaKeywords)
	assert.Equal(t, NoPageText, s.PageText)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

type countingFetcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingFetcher) Fetch(_ context.Context, pageURL string) (Snapshot, error) {
	c.calls.Add(1)
	if c.err != nil {
		return ErrorSnapshot(pageURL, c.err), c.err
	}
	return Snapshot{URL: pageURL, Title: "cached title"}, nil
}

func TestCachedFetcher_CachesSuccess(t *testing.T) {
	next := &countingFetcher{}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, time.Minute, func(u string) string { return "seo:" + u })

	s1, err := f.Fetch(context.Background(), "https://example.com")
	require.NoError(t, err)
	s2, err := f.Fetch(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, "cached title", s1.Title)
	assert.Equal(t, "cached title", s2.Title)
}

func TestCachedFetcher_DoesNotCacheFailures(t *testing.T) {
	next := &countingFetcher{err: &FetchError{URL: "https://example.com", StatusCode: 500}}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, time.Minute, func(u string) string { return u })

	_, err := f.Fetch(context.Background(), "https://example.com")
	assert.True(t, IsFetchError(err))
	_, err = f.Fetch(context.Background(), "https://example.com")
	assert.True(t, IsFetchError(err))

	assert.Equal(t, int32(2), next.calls.Load())
	assert.Empty(t, cache.data)
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingFetcher) Fetch(ctx context.Context, pageURL string) (Snapshot, error) {
	b.calls.Add(1)
	close(b.started)
	select {
	case <-b.release:
		return Snapshot{URL: pageURL, Title: "shared title"}, nil
	case <-ctx.Done():
		err := &FetchError{URL: pageURL, Cause: ctx.Err()}
		return ErrorSnapshot(pageURL, err), err
	}
}

func TestCachedFetcher_SharedFetchSurvivesCallerCancel(t *testing.T) {
	next := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, time.Minute, func(u string) string { return u }).WithTimeout(5 * time.Second)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Fetch(firstCtx, "https://example.com")
		firstErr <- err
	}()
	<-next.started

	type result struct {
		snapshot Snapshot
		err      error
	}
	second := make(chan result, 1)
	go func() {
		s, err := f.Fetch(context.Background(), "https://example.com")
		second <- result{s, err}
	}()

	cancelFirst()
	err := <-firstErr
	assert.True(t, IsFetchError(err))
	assert.ErrorIs(t, err, context.Canceled)

	// give the second caller time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(next.release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "shared title", res.snapshot.Title)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedFetcher_SharedFetchIsBounded(t *testing.T) {
	next := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, time.Minute, func(u string) string { return u }).WithTimeout(30 * time.Millisecond)

	s, err := f.Fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, s.Title, "Page could not be fetched")
	assert.Empty(t, cache.data)
}
