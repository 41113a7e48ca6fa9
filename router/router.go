// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/planning-poker/cliparse"
	"github.com/danielhkuo/planning-poker/handlers"
	"github.com/danielhkuo/planning-poker/middleware"
	"github.com/danielhkuo/planning-poker/poker"
	"github.com/danielhkuo/planning-poker/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	svc := poker.NewService(store.New(db, cfg.Dialect()), poker.Config{
		CodeAttempts:      cfg.CodeAttempts,
		CloseStoryRetries: cfg.CloseStoryRetries,
	})

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session management
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.CreateSession))
	mux.HandleFunc("GET /sessions", middleware.WithLogging(sessionHandler.ListSessions))
	mux.HandleFunc("GET /sessions/{code}", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("DELETE /sessions/{code}", middleware.WithLogging(sessionHandler.DeleteSession))
	mux.HandleFunc("POST /sessions/{code}/close-session", middleware.WithLogging(sessionHandler.CloseSession))
	mux.HandleFunc("POST /sessions/{code}/reset-votes", middleware.WithLogging(sessionHandler.ResetVotes))

	// Participation
	mux.HandleFunc("POST /sessions/{code}/join", middleware.WithLogging(votingHandler.JoinSession))
	mux.HandleFunc("POST /sessions/{code}/vote", middleware.WithLogging(votingHandler.VoteCard))
	mux.HandleFunc("POST /sessions/{code}/leave", middleware.WithLogging(votingHandler.LeaveSession))
	mux.HandleFunc("GET /sessions/{code}/participants", middleware.WithLogging(votingHandler.ListParticipants))

	// Results
	mux.HandleFunc("POST /sessions/{code}/close-story", middleware.WithLogging(resultsHandler.CloseStory))
	mux.HandleFunc("GET /sessions/{code}/summary", middleware.WithLogging(resultsHandler.GetSummary))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("planning-poker API v1"))
	})

	return mux
}
