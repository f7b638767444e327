package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"selfeval/internal/repository"
	"selfeval/internal/scoring"
	"selfeval/internal/service"
	"selfeval/internal/transport/rest/middleware"
	"strconv"

	"go.uber.org/zap"
)

const maxPageSize = 1000

// base carries what every handler needs to answer a request
type base struct {
	log *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps a service error to its status code. Unknown errors are logged
// and reported as 500 without detail.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *scoring.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrAttemptBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrNotSubmitted),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, scoring.ErrInvalidQuestion),
		errors.Is(err, scoring.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		b.log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// actor returns the authenticated caller; routes without auth never reach here
func actor(r *http.Request) service.Actor {
	a, _ := middleware.GetActor(r.Context())
	return a
}

// page reads skip/limit query params
func page(w http.ResponseWriter, r *http.Request, defaultLimit int64) (skip, limit int64, ok bool) {
	skip, limit = 0, defaultLimit
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return 0, 0, false
		}
		skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 || n > maxPageSize {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return 0, 0, false
		}
		limit = n
	}
	return skip, limit, true
}

// boolQuery reads an optional boolean query param; nil when absent
func boolQuery(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a boolean")
		return nil, false
	}
	return &b, true
}

func flag(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	b, ok := boolQuery(w, r, name)
	if !ok {
		return false, false
	}
	return b != nil && *b, true
}
