// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/planning-poker/middleware"
	"github.com/danielhkuo/planning-poker/models"
	"github.com/danielhkuo/planning-poker/poker"
)

type VotingHandler struct {
	svc *poker.Service
}

func NewVotingHandler(svc *poker.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// JoinSession handles POST /sessions/{code}/join
// Returns 201 when the player was added and 200 when they already were, or
// when the session is closed and nobody was added.
func (h *VotingHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	var req models.JoinSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, err := h.svc.JoinSession(r.Context(), code, req.Username)
	if err != nil {
		writeError(w, r, err, "join session")
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.JoinSessionResponse{
		VotingMode:    out.VotingMode,
		Status:        out.Status,
		Created:       out.Created,
		Participation: out.Participation,
	})
}

// VoteCard handles POST /sessions/{code}/vote
func (h *VotingHandler) VoteCard(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	var req models.VoteCardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.VoteCard(r.Context(), code, req.Username, req.Card); err != nil {
		writeError(w, r, err, "record vote")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "vote recorded"})
}

// LeaveSession handles POST /sessions/{code}/leave
func (h *VotingHandler) LeaveSession(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	var req models.LeaveSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.LeaveSession(r.Context(), code, req.Username); err != nil {
		writeError(w, r, err, "leave session")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "left session"})
}

// ListParticipants handles GET /sessions/{code}/participants
func (h *VotingHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	participants, err := h.svc.ListParticipants(r.Context(), code)
	if err != nil {
		writeError(w, r, err, "list participants")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, participants)
}
