package planner

import (
	"time"

	"github.com/google/uuid"

	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/keywords"
	"campaign-builder/internal/services/seo"
)

// GenerateRequest represents a keyword generation request
type GenerateRequest struct {
	Description string `json:"description"`
}

// AddKeywordRequest represents a manual keyword addition
type AddKeywordRequest struct {
	Keyword string `json:"keyword"`
	AdGroup string `json:"ad_group"`
}

// InclusionRequest toggles whether a record is part of the active view
type InclusionRequest struct {
	Included *bool `json:"included"`
}

// AnalyzeRequest represents an SEO page analysis request
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// EntryDTO is one stored record as shown to clients
type EntryDTO struct {
	ID       keywords.RecordID `json:"id"`
	Keyword  string            `json:"keyword"`
	AdGroup  string            `json:"ad_group"`
	Label    string            `json:"label"`
	Included bool              `json:"included"`
}

// RecordDTO is one record of the active view
type RecordDTO struct {
	Keyword string `json:"keyword"`
	AdGroup string `json:"ad_group"`
}

// SessionDTO represents the session state returned to clients
type SessionDTO struct {
	ID          uuid.UUID   `json:"id"`
	Description string      `json:"description"`
	Entries     []EntryDTO  `json:"entries"`
	AdGroups    []string    `json:"ad_groups"`
	Active      []RecordDTO `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PlanDTO is an accepted plan as returned to clients
type PlanDTO struct {
	ID          uuid.UUID   `json:"id"`
	SessionID   string      `json:"session_id,omitempty"`
	Description string      `json:"description"`
	Keywords    []RecordDTO `json:"keywords"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewPlanDTO maps a stored plan onto the API field names.
func NewPlanDTO(p *repo.Plan) PlanDTO {
	return PlanDTO{
		ID:          p.ID,
		SessionID:   p.SessionID,
		Description: p.Description,
		Keywords:    toRecordDTOs(p.Keywords),
		CreatedAt:   p.CreatedAt,
	}
}

// NewPlanDTOs maps a list of stored plans.
func NewPlanDTOs(plans []repo.Plan) []PlanDTO {
	out := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		out = append(out, NewPlanDTO(&plans[i]))
	}
	return out
}

// AnalysisDTO is the result of an SEO page analysis
type AnalysisDTO struct {
	SessionID uuid.UUID    `json:"session_id"`
	Snapshot  seo.Snapshot `json:"snapshot"`
	Keywords  []string     `json:"keywords"`
	Analysis  string       `json:"analysis"`
}

func newSessionDTO(s *repo.Session) *SessionDTO {
	entries := s.Store.Entries()
	dto := &SessionDTO{
		ID:          s.ID,
		Description: s.Description,
		Entries:     make([]EntryDTO, 0, len(entries)),
		AdGroups:    s.Store.AdGroups(),
		Active:      toRecordDTOs(s.Store.ActiveView()),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, e := range entries {
		dto.Entries = append(dto.Entries, EntryDTO{
			ID:       e.ID,
			Keyword:  e.Keyword,
			AdGroup:  e.AdGroup,
			Label:    e.Label(),
			Included: e.Included,
		})
	}
	if dto.AdGroups == nil {
		dto.AdGroups = []string{}
	}
	return dto
}

func toRecordDTOs(records []keywords.Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, RecordDTO{Keyword: r.Keyword, AdGroup: r.AdGroup})
	}
	return out
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeExtraction = "EXTRACTION_ERROR"
	ErrCodeUpstream   = "UPSTREAM_ERROR"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeRateLimit  = "RATE_LIMIT"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
