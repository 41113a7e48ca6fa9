// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSessionRequest: title, stories, voting_mode
  - JoinSessionRequest: username
  - VoteCardRequest: username, card
  - LeaveSessionRequest: username
  - CloseStoryRequest: story_index, optional final_value override
  - CloseSessionRequest: status (must be "closed")

# Response Types

  - JoinSessionResponse: voting_mode, status, created, participation
  - CloseStoryResponse: story_index, final_value
  - CloseSessionResponse: status
  - MessageResponse: message
  - ErrorResponse: error, message

# Domain Types

  - Session: code, title, stories, voting mode, status
  - Story: name, final_value, plus any extra display fields
  - Participation: a player's membership and vote in one session
  - VoteSummary: per-card tallies for the current round

# Constants

Status values:

	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"

Consensus sentinel:

	NoConsensus = "-1"

# Errors

Every layer wraps one of the sentinel errors so the transport can map it:

	ErrNotFound          → 404
	ErrValidation        → 400
	ErrNoVotesFound      → 400
	ErrConflict          → 409
	ErrCapacityExhausted → 503
*/
package models
