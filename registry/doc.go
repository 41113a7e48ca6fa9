// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package registry tracks which players belong to which session and what they
voted.

A participation is identified by its session code and username. Joining is
idempotent: a second join with the same username returns the existing row,
and concurrent joins of one username converge on a single row through the
unique (session_code, username) constraint.

# Joining

Join runs in one transaction. It locks the session row, refuses to add players
to a closed session, gets or creates the participation, and moves an open
session to in_progress when the first player arrives:

	res, err := reg.Join(ctx, "042137", "alice")
	if err != nil {
		return err
	}
	if res.Participation == nil {
		// session is closed
	}

# Rounds

SubmitVote sets a player's card, ResetRound clears every card of a session in
one statement, and Leave removes a player. None of them change the session
status.
*/
package registry
