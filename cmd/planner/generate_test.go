package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/keywords"
	"campaign-builder/internal/services/llm"
	"campaign-builder/internal/services/planner"
	"campaign-builder/internal/services/prompts"
	"campaign-builder/internal/services/seo"
)

type pageFetcher struct{}

func (pageFetcher) Fetch(ctx context.Context, pageURL string) (seo.Snapshot, error) {
	return seo.Snapshot{URL: pageURL, Title: "Green Thumb Gardens"}.Normalized(), nil
}

func testService(reply func(prompt string) (string, error)) *planner.Service {
	client := llm.ClientFunc(func(ctx context.Context, prompt, contextText string) (string, error) {
		return reply(prompt)
	})
	return planner.NewService(
		repo.NewMemorySessionRepository(time.Hour),
		repo.NewMemoryPlanRepository(),
		prompts.Default(),
		client,
		pageFetcher{},
		planner.Options{},
	)
}

func scriptedReply(prompt string) (string, error) {
	if strings.Contains(prompt, "Page Copy") {
		return "Strategy: focus on local search.\nText: rewrite the hero heading.", nil
	}
	return `[{"Keyword": "garden design", "Ad Group": "Design"},
	         {"Keyword": "lawn care", "Ad Group": "Maintenance"},
	         {"Keyword": "patio design", "Ad Group": "Design"}]`, nil
}

func TestRunGenerate_Text(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(context.Background(), &out, testService(scriptedReply), generateOptions{
		Description: "landscape gardener",
		URL:         "https://garden.example",
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, `Keywords for "landscape gardener"`)
	assert.Contains(t, text, "Design\n  - garden design\n  - patio design\n")
	assert.Contains(t, text, "Title: Green Thumb Gardens")
	assert.Contains(t, text, "Meta Description: No meta description found")
	assert.Contains(t, text, "rewrite the hero heading")
}

func TestRunGenerate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(context.Background(), &out, testService(scriptedReply), generateOptions{
		Description: "landscape gardener",
		JSON:        true,
	})
	require.NoError(t, err)

	var got generateOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Len(t, got.Session.Active, 3)
	assert.Equal(t, []string{"Design", "Maintenance"}, got.Session.AdGroups)
	assert.Nil(t, got.Analysis)
}

func TestRunGenerate_Errors(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(context.Background(), &out, testService(scriptedReply), generateOptions{Description: " "})
	assert.True(t, keywords.IsValidation(err))

	out.Reset()
	err = runGenerate(context.Background(), &out, testService(func(string) (string, error) {
		return "", &llm.UnavailableError{Provider: "openai", Cause: errors.New("down")}
	}), generateOptions{Description: "shop"})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Empty(t, out.String())
}

func TestGenerateCmd_RequiresDescription(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"generate"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
