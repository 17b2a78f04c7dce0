package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"DevHabit/internal/auth"
	"DevHabit/internal/logger"
	"DevHabit/internal/model"
	"DevHabit/internal/shaping"
	"DevHabit/internal/sorting"
	"DevHabit/internal/store"

	"github.com/go-chi/chi/v5/middleware"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 error body. Extensions are merged into the top level.
type Problem struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	RequestID  string
	Errors     map[string][]string
	Extensions map[string]any
}

func (p Problem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extensions)+7)
	for k, v := range p.Extensions {
		out[k] = v
	}
	out["type"] = p.Type
	out["title"] = p.Title
	out["status"] = p.Status
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	if p.Instance != "" {
		out["instance"] = p.Instance
	}
	if p.RequestID != "" {
		out["requestId"] = p.RequestID
	}
	if len(p.Errors) > 0 {
		out["errors"] = p.Errors
	}
	return json.Marshal(out)
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.1"
	case http.StatusUnauthorized:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.2"
	case http.StatusNotFound:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.5"
	case http.StatusNotAcceptable:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.7"
	case http.StatusUnsupportedMediaType:
		return "https://tools.ietf.org/html/rfc9110#section-15.5.16"
	default:
		return "https://tools.ietf.org/html/rfc9110#section-15.6.1"
	}
}

func newProblem(r *http.Request, status int, detail string) Problem {
	return Problem{
		Type:      problemType(status),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Instance:  r.Method + " " + r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
	}
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		logger.Warn("write_problem_failed", map[string]any{"error": err.Error()})
	}
}

// Fail writes a problem response with a client-facing detail.
func Fail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, newProblem(r, status, detail))
}

// Unauthorized is the callback used by the auth middleware.
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logger.Debug("unauthorized", map[string]any{
		"path":  r.URL.Path,
		"error": err.Error(),
	})
	Fail(w, r, http.StatusUnauthorized, "A valid bearer token is required.")
}

// handleError maps domain errors to problem responses. Anything unrecognized
// is logged and answered with a bare 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs     model.ValidationErrors
		badSort   *sorting.InvalidSortError
		badFields *shaping.InvalidFieldsError
	)
	switch {
	case errors.As(err, &verrs):
		p := newProblem(r, http.StatusBadRequest, "One or more validation errors occurred.")
		p.Errors = verrs
		writeProblem(w, p)
	case errors.As(err, &badSort):
		Fail(w, r, http.StatusBadRequest, "The provided sort parameter isn't valid: '"+badSort.Value+"'")
	case errors.As(err, &badFields):
		Fail(w, r, http.StatusBadRequest, "The provided data shaping fields aren't valid: '"+badFields.Value+"'")
	case errors.Is(err, errNotAcceptable):
		Fail(w, r, http.StatusNotAcceptable, "The requested media type is not supported.")
	case errors.Is(err, auth.ErrNoIdentity), errors.Is(err, errNoUser):
		Fail(w, r, http.StatusUnauthorized, "")
	case errors.Is(err, store.ErrNotFound):
		Fail(w, r, http.StatusNotFound, "")
	default:
		logger.Error("request_failed", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
			"error":      err.Error(),
		})
		Fail(w, r, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
