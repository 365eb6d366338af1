package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campaign-builder/internal/metrics"
	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/keywords"
	"campaign-builder/internal/services/llm"
	"campaign-builder/internal/services/prompts"
	"campaign-builder/internal/services/seo"
)

// Session action names, used for metrics and logs.
const (
	ActionCreate    = "create"
	ActionGenerate  = "generate"
	ActionAdd       = "add"
	ActionInclusion = "set_inclusion"
	ActionAnalyze   = "analyze"
	ActionAccept    = "accept"
	ActionDelete    = "delete"
)

// Options tunes planner behaviour.
type Options struct {
	// RequireKnownGroups rejects manual additions to ad groups the session does not already have.
	RequireKnownGroups bool
	// PlanListLimit caps ListPlans when the caller passes no limit.
	PlanListLimit int
}

// Service sequences user actions against a session's keyword store, the prompt
// composer, the LLM, the page fetcher and plan storage.
type Service struct {
	sessions   repo.SessionRepository
	plans      repo.PlanRepository
	composer   *prompts.Composer
	keywordLLM llm.Client
	seoLLM     llm.Client
	fetcher    seo.Fetcher
	opts       Options
}

// NewService creates a new planner Service
func NewService(sessions repo.SessionRepository, plans repo.PlanRepository, composer *prompts.Composer,
	client llm.Client, fetcher seo.Fetcher, opts Options) *Service {
	if opts.PlanListLimit <= 0 {
		opts.PlanListLimit = 50
	}
	return &Service{
		sessions:   sessions,
		plans:      plans,
		composer:   composer,
		keywordLLM: llm.Instrument(client, llm.KindKeywords),
		seoLLM:     llm.Instrument(client, llm.KindSEO),
		fetcher:    fetcher,
		opts:       opts,
	}
}

// CreateSession starts a session with an empty store.
func (s *Service) CreateSession(ctx context.Context) (*SessionDTO, error) {
	sess := repo.NewSession()
	err := s.sessions.Save(ctx, sess)
	metrics.RecordSessionAction(ActionCreate, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Debug().Str("session_id", sess.ID.String()).Msg("Session created")
	return newSessionDTO(sess), nil
}

// GetSession returns the current view of a session.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSessionDTO(sess), nil
}

// DeleteSession discards a session.
func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.sessions.Delete(ctx, id)
	metrics.RecordSessionAction(ActionDelete, err)
	return err
}

// Generate asks the LLM for a keyword plan for description and, if a valid list can be
// extracted, replaces the session's records with it. On any failure the store is untouched.
func (s *Service) Generate(ctx context.Context, id uuid.UUID, description string) (*SessionDTO, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &keywords.ValidationError{Field: "description", Message: "must not be empty"}
	}

	sess, err := s.mutate(ctx, id, ActionGenerate, func(sess *repo.Session) error {
		prompt := s.composer.BuildKeywordPrompt(description)
		reply, err := s.keywordLLM.Generate(ctx, prompt.Instruction, prompt.Context)
		if err != nil {
			return fmt.Errorf("keyword generation: %w", err)
		}

		records, err := keywords.Extract(reply)
		metrics.RecordExtraction(err)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID.String()).Int("reply_len", len(reply)).
				Msg("Could not extract keywords from LLM reply")
			return err
		}

		if _, err := sess.Store.ReplaceAll(records); err != nil {
			return err
		}
		sess.Description = description
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newSessionDTO(sess), nil
}

// AddKeyword appends a manual record to the session.
func (s *Service) AddKeyword(ctx context.Context, id uuid.UUID, keyword, adGroup string) (*SessionDTO, error) {
	sess, err := s.mutate(ctx, id, ActionAdd, func(sess *repo.Session) error {
		if s.opts.RequireKnownGroups && !sess.Store.HasAdGroup(strings.TrimSpace(adGroup)) {
			return &keywords.ValidationError{
				Field:   "ad_group",
				Message: fmt.Sprintf("%q is not one of the session's ad groups", strings.TrimSpace(adGroup)),
			}
		}
		_, err := sess.Store.Add(keyword, adGroup)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newSessionDTO(sess), nil
}

// SetInclusion includes or excludes one record from the active view.
func (s *Service) SetInclusion(ctx context.Context, id uuid.UUID, recordID keywords.RecordID, included bool) (*SessionDTO, error) {
	sess, err := s.mutate(ctx, id, ActionInclusion, func(sess *repo.Session) error {
		return sess.Store.SetInclusion(recordID, included)
	})
	if err != nil {
		return nil, err
	}
	return newSessionDTO(sess), nil
}

// AnalyzePage fetches pageURL and asks the LLM for SEO suggestions that take the session's
// active keywords into account. A failed fetch stops the action before any LLM call.
func (s *Service) AnalyzePage(ctx context.Context, id uuid.UUID, pageURL string) (*AnalysisDTO, error) {
	pageURL = strings.TrimSpace(pageURL)
	if err := seo.ValidateURL(pageURL); err != nil {
		return nil, &keywords.ValidationError{Field: "url", Message: err.Error()}
	}

	var result *AnalysisDTO
	_, err := s.withSession(ctx, id, ActionAnalyze, false, func(sess *repo.Session) error {
		snapshot, err := s.fetcher.Fetch(ctx, pageURL)
		metrics.RecordPageFetch(err)
		if err != nil {
			return err
		}

		active := keywords.Keywords(sess.Store.ActiveView())
		prompt, err := s.composer.BuildSEOPrompt(snapshot, active)
		if err != nil {
			return fmt.Errorf("failed to build SEO prompt: %w", err)
		}

		analysis, err := s.seoLLM.Generate(ctx, prompt, "")
		if err != nil {
			return fmt.Errorf("seo analysis: %w", err)
		}

		result = &AnalysisDTO{
			SessionID: sess.ID,
			Snapshot:  snapshot,
			Keywords:  active,
			Analysis:  analysis,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Accept stores the session's active view as a plan.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*repo.Plan, error) {
	var plan *repo.Plan
	_, err := s.withSession(ctx, id, ActionAccept, false, func(sess *repo.Session) error {
		active := sess.Store.ActiveView()
		if len(active) == 0 {
			return &keywords.ValidationError{Field: "keywords", Message: "no included keywords to accept"}
		}

		plan = &repo.Plan{
			SessionID:   sess.ID.String(),
			Description: sess.Description,
			Keywords:    active,
		}
		if err := s.plans.CreatePlan(ctx, plan); err != nil {
			return fmt.Errorf("failed to store plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("plan_id", plan.ID.String()).Str("session_id", id.String()).
		Int("keywords", len(plan.Keywords)).Msg("Keyword plan accepted")
	return plan, nil
}

// ListPlans returns stored plans, newest first.
func (s *Service) ListPlans(ctx context.Context, limit int) ([]repo.Plan, error) {
	if limit <= 0 || limit > s.opts.PlanListLimit {
		limit = s.opts.PlanListLimit
	}
	plans, err := s.plans.ListPlans(ctx, limit)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []repo.Plan{}
	}
	return plans, nil
}

// GetPlan returns one stored plan.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*repo.Plan, error) {
	return s.plans.GetPlan(ctx, id)
}

// mutate runs fn under the session lock and saves the session only if fn succeeds.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, action string, fn func(*repo.Session) error) (*repo.Session, error) {
	return s.withSession(ctx, id, action, true, fn)
}

func (s *Service) withSession(ctx context.Context, id uuid.UUID, action string, save bool, fn func(*repo.Session) error) (sess *repo.Session, err error) {
	defer func() {
		metrics.RecordSessionAction(action, err)
		if err != nil {
			logActionError(id, action, err)
		}
	}()

	unlock, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err = s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = fn(sess); err != nil {
		return nil, err
	}

	if save {
		if err = s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return sess, nil
}

func logActionError(id uuid.UUID, action string, err error) {
	event := log.Error()
	switch {
	case keywords.IsValidation(err), keywords.IsNotFound(err), keywords.IsExtraction(err),
		errors.Is(err, repo.ErrSessionNotFound), errors.Is(err, repo.ErrSessionLocked),
		errors.Is(err, llm.ErrUnavailable), seo.IsFetchError(err):
		event = log.Warn()
	}
	event.Err(err).Str("session_id", id.String()).Str("action", action).Msg("Session action failed")
}
