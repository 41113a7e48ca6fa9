// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Planning Poker API.

# Handler Types

Each handler is a struct around one *poker.Service:

  - SessionHandler: Session lifecycle (create, list, get, delete, close, reset votes)
  - VotingHandler: Joining, voting, leaving and listing players
  - ResultsHandler: Story closure and the vote summary

Handlers are created via constructor functions that accept the service:

	sessionHandler := handlers.NewSessionHandler(svc)

# Session Lifecycle

Sessions progress through three states: open → in_progress → closed

	POST   /sessions                      → CreateSession (status open)
	POST   /sessions/{code}/join          → JoinSession (first join: in_progress)
	POST   /sessions/{code}/close-session → CloseSession (body {"status": "closed"})
	DELETE /sessions/{code}               → DeleteSession (removes players too)

Joining a closed session adds nobody and answers 200 with status closed.

# Voting Flow

	POST /sessions/{code}/vote        → VoteCard
	POST /sessions/{code}/close-story → CloseStory (aggregates or takes final_value)
	GET  /sessions/{code}/summary     → GetSummary
	POST /sessions/{code}/reset-votes → ResetVotes

# Errors

Service errors map to status codes in one place:

	models.ErrNotFound          → 404
	models.ErrValidation        → 400
	models.ErrNoVotesFound      → 400 ("no votes found")
	models.ErrConflict          → 409
	models.ErrCapacityExhausted → 503

Anything else is logged and answered with 500.
*/
package handlers
