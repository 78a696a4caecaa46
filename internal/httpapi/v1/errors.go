package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tinoosan/accountrix/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func unprocessable(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, "validation_error")
}

// writeServiceErr maps store/service errors onto HTTP responses.
func (s *Server) writeServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrAlreadyExists):
		writeErr(w, http.StatusConflict, "username already exists", "already_exists")
	case errors.Is(err, errs.ErrInvalid):
		unprocessable(w, err.Error())
	case errors.Is(err, errs.ErrCreateFailed):
		writeErr(w, http.StatusInternalServerError, "could not assign account id", "create_failed")
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}
