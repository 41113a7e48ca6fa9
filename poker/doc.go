// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poker implements the operations players and facilitators perform on a
planning poker session.

A Service composes the code generator, the participation registry, the
session lifecycle rules and the vote aggregator on top of one store:

	svc := poker.NewService(store.New(conn, db.SQLite), poker.Config{})

	sess, err := svc.CreateSession(ctx, poker.CreateSessionInput{
		Title:      "Sprint 12",
		Stories:    []models.Story{{Name: "Login"}, {Name: "Search"}},
		VotingMode: "median",
	})

	svc.JoinSession(ctx, sess.Code, "alice")
	svc.VoteCard(ctx, sess.Code, "alice", "8")

	idx := 0
	value, err := svc.CloseStory(ctx, sess.Code, &idx, "")

# Errors

Every operation returns errors wrapping one of the sentinels in package
models: ErrNotFound for unknown sessions or players, ErrValidation for bad
input, ErrNoVotesFound when a story is closed in a session nobody joined,
ErrConflict when a story closure keeps losing to concurrent writers, and
ErrCapacityExhausted when no free session code could be drawn.

# Story closure

CloseStory does not reset votes. Call ResetVotes to start the next round.
Closing a story twice replaces its final value.
*/
package poker
