package handler

import (
	"net/http"
	"selfeval/internal/model"
	"selfeval/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AttemptHandler handles survey attempt endpoints
type AttemptHandler struct {
	base
	attemptSvc *service.AttemptService
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptSvc *service.AttemptService, log *zap.Logger) *AttemptHandler {
	return &AttemptHandler{base: base{log: log}, attemptSvc: attemptSvc}
}

// Start handles POST /api/v1/survey-attempts/start
func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SurveyID == "" {
		writeError(w, http.StatusBadRequest, "survey_id is required")
		return
	}

	resp, err := h.attemptSvc.Start(r.Context(), actor(r), req.SurveyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveAnswers handles POST /api/v1/survey-attempts/{attemptId}/answers
func (h *AttemptHandler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswersRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.attemptSvc.SaveAnswers(r.Context(), actor(r), mux.Vars(r)["attemptId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Submit handles POST /api/v1/survey-attempts/{attemptId}/submit
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.attemptSvc.Submit(r.Context(), actor(r), mux.Vars(r)["attemptId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Results handles GET /api/v1/survey-attempts/{attemptId}/results
func (h *AttemptHandler) Results(w http.ResponseWriter, r *http.Request) {
	view, err := h.attemptSvc.Results(r.Context(), actor(r), mux.Vars(r)["attemptId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Mine handles GET /api/v1/survey-attempts/my?include_answers=
func (h *AttemptHandler) Mine(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 20)
	if !ok {
		return
	}
	includeAnswers, ok := flag(w, r, "include_answers")
	if !ok {
		return
	}

	views, err := h.attemptSvc.Mine(r.Context(), actor(r), includeAnswers, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// BySurvey handles GET /api/v1/survey-attempts/by-survey/{surveyId}?include_answers=
func (h *AttemptHandler) BySurvey(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 50)
	if !ok {
		return
	}
	includeAnswers, ok := flag(w, r, "include_answers")
	if !ok {
		return
	}

	views, err := h.attemptSvc.BySurvey(r.Context(), actor(r), mux.Vars(r)["surveyId"], includeAnswers, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
