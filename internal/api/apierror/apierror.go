package apierror

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Response is the error body every endpoint returns.
type Response struct {
	Error string `json:"error"`
}

// Write sends a JSON error body and logs the underlying error with the
// request-scoped logger. Client errors log at warn, server errors at error.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: message})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, r *http.Request, message string, err error) {
	Write(w, r, http.StatusBadRequest, message, err)
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string, err error) {
	Write(w, r, http.StatusUnauthorized, message, err)
}

// Forbidden writes a 403 response.
func Forbidden(w http.ResponseWriter, r *http.Request, message string, err error) {
	Write(w, r, http.StatusForbidden, message, err)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, r *http.Request, message string, err error) {
	Write(w, r, http.StatusNotFound, message, err)
}

// Conflict writes a 409 response.
func Conflict(w http.ResponseWriter, r *http.Request, message string, err error) {
	Write(w, r, http.StatusConflict, message, err)
}

// Internal writes a 500 response with a generic message so internal detail
// never leaks to clients.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	Write(w, r, http.StatusInternalServerError, "internal server error", err)
}
