// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/planning-poker/middleware"
	"github.com/danielhkuo/planning-poker/models"
	"github.com/danielhkuo/planning-poker/poker"
)

type ResultsHandler struct {
	svc *poker.Service
}

func NewResultsHandler(svc *poker.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// CloseStory handles POST /sessions/{code}/close-story
// A non-empty final_value overrides the aggregated result.
func (h *ResultsHandler) CloseStory(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	var req models.CloseStoryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	value, err := h.svc.CloseStory(r.Context(), code, req.StoryIndex, req.FinalValue)
	if err != nil {
		writeError(w, r, err, "close story")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CloseStoryResponse{
		StoryIndex: *req.StoryIndex,
		FinalValue: value,
	})
}

// GetSummary handles GET /sessions/{code}/summary
// Returns how many players voted and how often each card was played.
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	code, ok := sessionCode(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.VoteSummary(r.Context(), code)
	if err != nil {
		writeError(w, r, err, "summarize votes")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}
