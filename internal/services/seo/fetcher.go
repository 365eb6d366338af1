package seo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Fetcher retrieves the SEO fields of a page. The returned snapshot is always
// well-formed; on failure it carries error placeholders and err is a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (Snapshot, error)
}

const (
	defaultUserAgent = "campaign-builder/1.0 (+seo-helper)"
	defaultMaxBody   = 5 << 20
	defaultTimeout   = 15 * time.Second
)

// HTTPFetcher fetches pages over HTTP and extracts fields with goquery.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher creates a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBody:   defaultMaxBody,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (Snapshot, error) {
	snapshot, err := f.fetch(ctx, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Page fetch failed")
		return ErrorSnapshot(pageURL, err), err
	}
	return snapshot, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, pageURL string) (Snapshot, error) {
	if err := ValidateURL(pageURL); err != nil {
		return Snapshot{}, &FetchError{URL: pageURL, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Snapshot{}, &FetchError{URL: pageURL, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, &FetchError{URL: pageURL, Cause: fmt.Errorf("failed to make HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Snapshot{}, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return Snapshot{}, &FetchError{URL: pageURL, Cause: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	snapshot := ParseDocument(doc)
	snapshot.URL = pageURL
	return snapshot, nil
}

// ParseDocument extracts the title, meta description, meta keywords and the
// text of paragraph and heading elements. Missing fields get placeholders.
func ParseDocument(doc *goquery.Document) Snapshot {
	var blocks []string
	doc.Find("p, h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	s := Snapshot{
		Title:           doc.Find("title").First().Text(),
		MetaDescription: metaContent(doc, "description"),
		MetaKeywords:    metaContent(doc, "keywords"),
		PageText:        strings.Join(blocks, "\n\n"),
	}
	return s.Normalized()
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content")
	return content
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: URL must use http:// or https:// scheme", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a valid host", ErrInvalidURL)
	}
	return nil
}
