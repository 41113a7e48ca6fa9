// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Connecting

Two backends are supported, chosen by DATABASE_TYPE:

	conn, err := db.Open(db.SQLite, "file:poker.db")
	conn, err := db.Open(db.Postgres, "postgres://...")

SQLite URLs get foreign_keys and busy_timeout pragmas unless they already set
them, and the pool is capped at one connection.

# Migrations

Migrations are embedded SQL files applied with golang-migrate:

	if err := db.Migrate(conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call on every start; applied versions are skipped. The same SQL runs
on both backends.

# Tables

  - poker_session: code, title, stories (JSON text), voting mode, status, version
  - participation: one row per player per session

# Relationships

	poker_session 1──* participation

participation.session_code uses ON DELETE CASCADE and (session_code, username)
is unique.
*/
package db
