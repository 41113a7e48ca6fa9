// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/planning-poker/middleware"
	"github.com/danielhkuo/planning-poker/models"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNoVotesFound):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrCapacityExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error. Unexpected errors are logged and
// replaced by a generic message naming the failed action.
func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		slog.Error("failed to "+action, "error", err, "request_id", middleware.RequestID(r.Context()))
		middleware.ErrorResponse(w, status, "Failed to "+action)
	case errors.Is(err, models.ErrNoVotesFound):
		middleware.ErrorResponse(w, status, models.ErrNoVotesFound.Error())
	default:
		middleware.ErrorResponse(w, status, err.Error())
	}
}

// sessionCode reads the {code} path value. It writes a 400 and returns false
// when it is missing.
func sessionCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := r.PathValue("code")
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session code is required")
		return "", false
	}
	return code, true
}
