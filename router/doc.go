// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the planning poker API.

# Route Registration

NewRouter wires the store, the poker service and the handlers, and returns
a configured http.ServeMux:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Sessions:

	POST   /sessions                      - Create session
	GET    /sessions                      - List sessions
	GET    /sessions/{code}               - Get session
	DELETE /sessions/{code}               - Delete session and its participants
	POST   /sessions/{code}/close-session - Close session
	POST   /sessions/{code}/reset-votes   - Clear every vote

Participation:

	POST /sessions/{code}/join         - Join (idempotent per username)
	POST /sessions/{code}/vote         - Submit or change a card
	POST /sessions/{code}/leave        - Remove a participant
	GET  /sessions/{code}/participants - List participants

Results:

	POST /sessions/{code}/close-story - Resolve a story's final value
	GET  /sessions/{code}/summary     - Card counts for the current round

Request IDs and CORS are applied around the whole mux in main.
*/
package router
