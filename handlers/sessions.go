// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/planning-poker/middleware"
	"github.com/danielhkuo/planning-poker/models"
	"github.com/danielhkuo/planning-poker/poker"
)

type SessionHandler struct {
	svc *poker.Service
}

func NewSessionHandler(svc *poker.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), poker.CreateSessionInput{
		Title:      req.Title,
		Stories:    req.Stories,
		VotingMode: req.VotingMode,
	})
	if err != nil {
		writeError(w, r, err, "create session")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, sess)
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err, "list sessions")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sessions)
}

// GetSession handles GET /sessions/{code}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.GetSession(r.Context(), code)
	if err != nil {
		writeError(w, r, err, "get session")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{code}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteSession(r.Context(), code); err != nil {
		writeError(w, r, err, "delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseSession handles POST /sessions/{code}/close-session
// The body must confirm the target status: {"status": "closed"}.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	var req models.CloseSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	status, err := h.svc.CloseSession(r.Context(), code, req.Status)
	if err != nil {
		writeError(w, r, err, "close session")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CloseSessionResponse{Status: status})
}

// ResetVotes handles POST /sessions/{code}/reset-votes
func (h *SessionHandler) ResetVotes(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	if err := h.svc.ResetVotes(r.Context(), code); err != nil {
		writeError(w, r, err, "reset votes")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "votes reset"})
}
