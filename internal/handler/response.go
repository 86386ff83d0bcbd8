package handler

// RESPONSE HELPERS:
// Every JSON response from the API uses one envelope:
//
//	{"success": true,  "data": {...}}
//	{"success": true,  "message": "event deleted"}
//	{"success": false, "message": "title is required"}
//
// Handlers never build that shape by hand; they call writeSuccess,
// writeMessage or writeError.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/clubboard/internal/apperror"
)

// msgInternal is the only thing a client learns about an unexpected failure.
const msgInternal = "internal server error"

// Envelope is the response body of every API endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON sends data with the given status code. Headers must be set
// before WriteHeader, and WriteHeader before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// statusFor maps a domain error to its HTTP status. Conflict answers 400,
// not 409; existing clients treat a taken username as a bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes the failure envelope.
//
// errors.As finds the *AppError anywhere in the wrap chain, so a service
// returning fmt.Errorf("...: %w", apperror.NotFound(...)) still produces a
// 404 with the AppError's own message. Anything that is not an AppError is
// an unexpected failure: it is logged in full and the client gets a generic
// 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	status := statusFor(err)
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeFailure(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeFailure(w, status, appErr.Message)
}
