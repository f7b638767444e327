package handler

import (
	"net/http"
	"selfeval/internal/model"
	"selfeval/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// QuestionHandler handles question endpoints
type QuestionHandler struct {
	base
	questionSvc *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionSvc *service.QuestionService, log *zap.Logger) *QuestionHandler {
	return &QuestionHandler{base: base{log: log}, questionSvc: questionSvc}
}

// Create handles POST /api/v1/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	question, err := h.questionSvc.Create(r.Context(), actor(r), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

// List handles GET /api/v1/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 100)
	if !ok {
		return
	}

	questions, err := h.questionSvc.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// Get handles GET /api/v1/questions/{questionId}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	question, err := h.questionSvc.Get(r.Context(), mux.Vars(r)["questionId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// Update handles PUT /api/v1/questions/{questionId}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	question, err := h.questionSvc.Update(r.Context(), mux.Vars(r)["questionId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// Delete handles DELETE /api/v1/questions/{questionId}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.questionSvc.Delete(r.Context(), mux.Vars(r)["questionId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
