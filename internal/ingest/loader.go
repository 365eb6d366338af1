package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/keywords"
)

// PlanDocument is one plan as written in an import file. ID and CreatedAt are optional.
type PlanDocument struct {
	ID          string            `json:"id" yaml:"id"`
	SessionID   string            `json:"session_id" yaml:"session_id"`
	Description string            `json:"description" yaml:"description"`
	Keywords    []keywords.Record `json:"keywords" yaml:"keywords"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
}

// Result summarises an import run.
type Result struct {
	Files   int
	Loaded  int
	Skipped int
}

// Loader imports accepted plans from JSON and YAML files
type Loader struct {
	plans repo.PlanRepository
}

// NewLoader creates a new Loader instance
func NewLoader(plans repo.PlanRepository) *Loader {
	return &Loader{plans: plans}
}

// LoadFromPath imports a single file or every supported file under a directory.
func (l *Loader) LoadFromPath(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadFromDirectory(ctx, path)
	}
	return l.LoadFromFile(ctx, path)
}

// LoadFromDirectory loads all .json, .yaml and .yml files from a directory tree
func (l *Loader) LoadFromDirectory(ctx context.Context, dirPath string) (Result, error) {
	var total Result
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(path) {
			return nil
		}

		res, err := l.LoadFromFile(ctx, path)
		if err != nil {
			return err
		}
		total.Files += res.Files
		total.Loaded += res.Loaded
		total.Skipped += res.Skipped
		return nil
	})
	return total, err
}

// LoadFromFile loads plans from a single file. Invalid plans are skipped and logged;
// an unreadable or undecodable file is an error.
func (l *Loader) LoadFromFile(ctx context.Context, filePath string) (Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	docs, err := decode(filePath, data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}

	logger := log.With().Str("file", filePath).Logger()
	logger.Info().Int("plans", len(docs)).Msg("Loading plans")

	res := Result{Files: 1}
	for i, doc := range docs {
		plan, err := doc.toPlan()
		if err == nil {
			err = l.plans.CreatePlan(ctx, plan)
		}
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping plan")
			res.Skipped++
			continue
		}
		res.Loaded++
	}
	return res, nil
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func decode(path string, data []byte) ([]PlanDocument, error) {
	var docs []PlanDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (d PlanDocument) toPlan() (*repo.Plan, error) {
	if len(d.Keywords) == 0 {
		return nil, fmt.Errorf("plan has no keywords")
	}

	plan := &repo.Plan{
		SessionID:   strings.TrimSpace(d.SessionID),
		Description: strings.TrimSpace(d.Description),
		CreatedAt:   d.CreatedAt,
		Keywords:    make([]keywords.Record, 0, len(d.Keywords)),
	}
	if d.ID != "" {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid plan id %q: %w", d.ID, err)
		}
		plan.ID = id
	}

	for i, rec := range d.Keywords {
		clean, err := keywords.NewRecord(rec.Keyword, rec.AdGroup)
		if err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i, err)
		}
		plan.Keywords = append(plan.Keywords, clean)
	}
	return plan, nil
}
