package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"payble/internal/core"
	applog "payble/internal/log"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}

// statusFor maps a service error to a response status: validation errors
// are 422, missing obligations 404 and everything else 500.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it with the status from statusFor.
// Internal errors are not echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		logger.Failure(r.Context(), "Request failed", err, applog.FieldOperation, op)
		writeError(w, r, status, "internal error")
		return
	}
	logger.WarnContext(r.Context(), "Request rejected", applog.FieldOperation, op, applog.FieldError, err, applog.FieldStatusCode, status)
	writeError(w, r, status, err.Error())
}
