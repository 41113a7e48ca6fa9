// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the planning poker API server.

Planning poker is a team estimation tool: a facilitator opens a session with
a list of stories, players join by username and pick cards, and each story is
closed with a final value aggregated under the session's voting mode
(average, median, majority_absolute, majority_relative or strict).

# Starting the Server

Only the database URL is required. SQLite is the default backend:

	DATABASE_URL=file:poker.db go run .

PostgreSQL:

	go run . -t postgres -d "postgres://..."

A YAML file can hold the same settings:

	go run . -c poker.yaml

# Configuration

Sources apply in order, later ones winning: defaults, the YAML file,
environment variables (a .env file is loaded if present), then flags.

  - DATABASE_URL (-d): connection string (required)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - PORT (-p): server port (default: 3318)
  - LOG_LEVEL (-log-level), LOG_FORMAT (-log-format): slog settings
  - CODE_ATTEMPTS, CLOSE_STORY_RETRIES: retry budgets

Migrations run on every start.

# Architecture

  - handlers: HTTP request handlers (sessions, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request IDs, logging, JSON helpers
  - poker: Orchestration of every session operation
  - registry: Participation rows and the join transaction
  - lifecycle: Session status transitions
  - voting: Vote aggregation modes
  - idgen: Session code generation
  - store: SQL access for SQLite and PostgreSQL
  - db: Connections and embedded migrations
  - models: Domain and request/response types
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
