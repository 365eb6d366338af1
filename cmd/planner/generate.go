package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campaign-builder/internal/config"
	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/llm"
	"campaign-builder/internal/services/planner"
	"campaign-builder/internal/services/prompts"
	"campaign-builder/internal/services/seo"
)

type generateOptions struct {
	Description string
	URL         string
	JSON        bool
}

type generateOutput struct {
	Session  *planner.SessionDTO  `json:"session"`
	Analysis *planner.AnalysisDTO `json:"analysis,omitempty"`
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a keyword plan and optionally review a page's SEO against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			svc, err := newService(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.OpenAI.Timeout+cfg.Fetcher.Timeout)
			defer cancel()
			return runGenerate(ctx, cmd.OutOrStdout(), svc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "business description")
	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "page to analyze for SEO with the generated keywords")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	cmd.MarkFlagRequired("description")

	return cmd
}

// newService wires an in-memory planner for a single CLI run.
func newService(cfg *config.Config) (*planner.Service, error) {
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Timeout:     cfg.OpenAI.Timeout,
		Temperature: cfg.OpenAI.Temperature,
	})
	if err != nil {
		return nil, err
	}

	composer, err := prompts.NewComposer(cfg.Prompt.KeywordCount, cfg.Prompt.GroupCount)
	if err != nil {
		return nil, err
	}

	return planner.NewService(
		repo.NewMemorySessionRepository(time.Hour),
		repo.NewMemoryPlanRepository(),
		composer,
		client,
		seo.NewHTTPFetcher(cfg.Fetcher.Timeout, cfg.Fetcher.UserAgent),
		planner.Options{RequireKnownGroups: cfg.Session.RequireKnownGroups},
	), nil
}

func runGenerate(ctx context.Context, out io.Writer, svc *planner.Service, opts generateOptions) error {
	session, err := svc.CreateSession(ctx)
	if err != nil {
		return err
	}

	result := generateOutput{}
	result.Session, err = svc.Generate(ctx, session.ID, opts.Description)
	if err != nil {
		return err
	}

	if opts.URL != "" {
		result.Analysis, err = svc.AnalyzePage(ctx, session.ID, opts.URL)
		if err != nil {
			return err
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printText(out, result)
	return nil
}

func printText(out io.Writer, result generateOutput) {
	groups := make(map[string][]string)
	for _, rec := range result.Session.Active {
		groups[rec.AdGroup] = append(groups[rec.AdGroup], rec.Keyword)
	}

	fmt.Fprintf(out, "Keywords for %q\n", result.Session.Description)
	for _, group := range result.Session.AdGroups {
		fmt.Fprintf(out, "\n%s\n", group)
		for _, kw := range groups[group] {
			fmt.Fprintf(out, "  - %s\n", kw)
		}
	}

	if a := result.Analysis; a != nil {
		fmt.Fprintf(out, "\nSEO information for %s\n", a.Snapshot.URL)
		fmt.Fprintf(out, "Title: %s\n", a.Snapshot.Title)
		fmt.Fprintf(out, "Meta Description: %s\n", a.Snapshot.MetaDescription)
		fmt.Fprintf(out, "Meta Keywords: %s\n", a.Snapshot.MetaKeywords)
		fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(a.Analysis))
	}
}
