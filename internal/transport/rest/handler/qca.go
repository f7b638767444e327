package handler

import (
	"net/http"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// QCAHandler handles question-course association endpoints
type QCAHandler struct {
	base
	qcaSvc *service.QCAService
}

// NewQCAHandler creates a new association handler
func NewQCAHandler(qcaSvc *service.QCAService, log *zap.Logger) *QCAHandler {
	return &QCAHandler{base: base{log: log}, qcaSvc: qcaSvc}
}

// Create handles POST /api/v1/question-course-associations
func (h *QCAHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateQCARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	qca, err := h.qcaSvc.Create(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, qca)
}

// List handles GET /api/v1/question-course-associations?question_id=&course_id=
func (h *QCAHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 100)
	if !ok {
		return
	}
	filter := repository.QCAFilter{
		QuestionID: r.URL.Query().Get("question_id"),
		CourseID:   r.URL.Query().Get("course_id"),
	}

	qcas, err := h.qcaSvc.List(r.Context(), filter, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qcas)
}

// Get handles GET /api/v1/question-course-associations/{qcaId}
func (h *QCAHandler) Get(w http.ResponseWriter, r *http.Request) {
	qca, err := h.qcaSvc.Get(r.Context(), mux.Vars(r)["qcaId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qca)
}

// Update handles PUT /api/v1/question-course-associations/{qcaId}
func (h *QCAHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateQCARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	qca, err := h.qcaSvc.Update(r.Context(), mux.Vars(r)["qcaId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qca)
}

// Delete handles DELETE /api/v1/question-course-associations/{qcaId}
func (h *QCAHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.qcaSvc.Delete(r.Context(), mux.Vars(r)["qcaId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
