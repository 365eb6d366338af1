package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campaign-builder/internal/repo"
	"campaign-builder/internal/services/keywords"
	"campaign-builder/internal/services/llm"
	"campaign-builder/internal/services/planner"
	"campaign-builder/internal/services/seo"
)

// maxBodyBytes bounds request bodies; every request here is a small JSON object.
const maxBodyBytes = 1 << 20

// PlannerHandler handles planner HTTP requests
type PlannerHandler struct {
	service *planner.Service
}

// NewPlannerHandler creates a new PlannerHandler
func NewPlannerHandler(service *planner.Service) *PlannerHandler {
	return &PlannerHandler{service: service}
}

// RegisterRoutes registers all planner routes
func (h *PlannerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/generate", h.Generate)
				r.Post("/keywords", h.AddKeyword)
				r.Patch("/keywords/{recordID}", h.SetInclusion)
				r.Post("/seo", h.AnalyzePage)
				r.Post("/accept", h.Accept)
			})
		})
		r.Get("/plans", h.ListPlans)
		r.Get("/plans/{id}", h.GetPlan)
	})
}

// CreateSession starts a new planning session
func (h *PlannerHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession returns the session view
func (h *PlannerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession discards a session
func (h *PlannerHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate replaces the session's keywords with a fresh LLM-generated plan
func (h *PlannerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req planner.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.Generate(r.Context(), id, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// AddKeyword appends a manual keyword
func (h *PlannerHandler) AddKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req planner.AddKeywordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.service.AddKeyword(r.Context(), id, req.Keyword, req.AdGroup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// SetInclusion includes or excludes one keyword record
func (h *PlannerHandler) SetInclusion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, planner.NewErrorResponse(planner.ErrCodeValidation, "invalid record id"))
		return
	}
	var req planner.InclusionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Included == nil {
		writeJSON(w, http.StatusBadRequest, planner.NewErrorResponse(planner.ErrCodeValidation, "included is required"))
		return
	}

	session, err := h.service.SetInclusion(r.Context(), id, keywords.RecordID(recordID), *req.Included)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// AnalyzePage fetches a page and returns SEO suggestions for the session's active keywords
func (h *PlannerHandler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req planner.AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	analysis, err := h.service.AnalyzePage(r.Context(), id, req.URL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Accept stores the session's active keywords as a plan
func (h *PlannerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	plan, err := h.service.Accept(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, planner.NewPlanDTO(plan))
}

// ListPlans returns accepted plans, newest first
func (h *PlannerHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeJSON(w, http.StatusBadRequest, planner.NewErrorResponse(planner.ErrCodeValidation, "invalid limit value"))
			return
		}
		limit = l
	}

	plans, err := h.service.ListPlans(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plans": planner.NewPlanDTOs(plans),
		"total": len(plans),
	})
}

// GetPlan returns one accepted plan
func (h *PlannerHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planner.NewPlanDTO(plan))
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, planner.NewErrorResponse(planner.ErrCodeValidation, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, planner.NewErrorResponse(planner.ErrCodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// errorStatus maps a service error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case keywords.IsValidation(err):
		return http.StatusBadRequest, planner.ErrCodeValidation
	case keywords.IsNotFound(err), errors.Is(err, repo.ErrSessionNotFound), errors.Is(err, repo.ErrPlanNotFound):
		return http.StatusNotFound, planner.ErrCodeNotFound
	case keywords.IsExtraction(err):
		return http.StatusUnprocessableEntity, planner.ErrCodeExtraction
	case errors.Is(err, llm.ErrUnavailable), seo.IsFetchError(err):
		return http.StatusBadGateway, planner.ErrCodeUpstream
	case errors.Is(err, repo.ErrSessionLocked):
		return http.StatusConflict, planner.ErrCodeConflict
	default:
		return http.StatusInternalServerError, planner.ErrCodeInternal
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		message = "internal server error"
	}
	writeJSON(w, status, planner.NewErrorResponse(code, message))
}
