package llm

import (
	"context"
	"time"

	"campaign-builder/internal/metrics"
)

// Prompt kinds used as metric labels.
const (
	KindKeywords = "keywords"
	KindSEO      = "seo"
)

type instrumented struct {
	next Client
	kind string
}

// Instrument records the outcome and latency of every call made through next under kind.
func Instrument(next Client, kind string) Client {
	return &instrumented{next: next, kind: kind}
}

func (c *instrumented) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	start := time.Now()
	reply, err := c.next.Generate(ctx, prompt, contextText)
	metrics.ObserveLLMRequest(c.kind, err, time.Since(start))
	return reply, err
}
