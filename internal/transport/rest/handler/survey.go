package handler

import (
	"net/http"
	"selfeval/internal/model"
	"selfeval/internal/service"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const defaultScoreboardSize = 10

// SurveyHandler handles survey endpoints
type SurveyHandler struct {
	base
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService, log *zap.Logger) *SurveyHandler {
	return &SurveyHandler{base: base{log: log}, surveySvc: surveySvc}
}

// Create handles POST /api/v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.SurveyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), actor(r), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

// List handles GET /api/v1/surveys?published_only=
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 100)
	if !ok {
		return
	}
	publishedOnly, ok := boolQuery(w, r, "published_only")
	if !ok {
		return
	}

	surveys, err := h.surveySvc.List(r.Context(), actor(r), publishedOnly, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// Get handles GET /api/v1/surveys/{surveyId}?include_questions=
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	includeQuestions, ok := flag(w, r, "include_questions")
	if !ok {
		return
	}

	survey, err := h.surveySvc.Get(r.Context(), actor(r), mux.Vars(r)["surveyId"], includeQuestions)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// Update handles PUT /api/v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.SurveyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	survey, err := h.surveySvc.Update(r.Context(), actor(r), mux.Vars(r)["surveyId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// Delete handles DELETE /api/v1/surveys/{surveyId}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.Delete(r.Context(), actor(r), mux.Vars(r)["surveyId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Scoreboard handles GET /api/v1/surveys/{surveyId}/scoreboard?limit=
func (h *SurveyHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoreboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := h.surveySvc.Scoreboard(r.Context(), actor(r), mux.Vars(r)["surveyId"], limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
