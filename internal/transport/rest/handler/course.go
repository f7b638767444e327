package handler

import (
	"net/http"
	"selfeval/internal/model"
	"selfeval/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CourseHandler handles course endpoints
type CourseHandler struct {
	base
	courseSvc *service.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseSvc *service.CourseService, log *zap.Logger) *CourseHandler {
	return &CourseHandler{base: base{log: log}, courseSvc: courseSvc}
}

// Create handles POST /api/v1/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courseSvc.Create(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

// List handles GET /api/v1/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(w, r, 100)
	if !ok {
		return
	}

	courses, err := h.courseSvc.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Get handles GET /api/v1/courses/{courseId}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseSvc.Get(r.Context(), mux.Vars(r)["courseId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// Update handles PUT /api/v1/courses/{courseId}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courseSvc.Update(r.Context(), mux.Vars(r)["courseId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// Delete handles DELETE /api/v1/courses/{courseId}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.courseSvc.Delete(r.Context(), mux.Vars(r)["courseId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
