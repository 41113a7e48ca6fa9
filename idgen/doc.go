// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package idgen generates six-digit session codes.

# Session Codes

Codes are drawn uniformly from 000000-999999 with crypto/rand and checked
against the store before use:

	gen := idgen.New(store)
	code, err := gen.Generate(ctx)

A taken code is redrawn. After DefaultMaxAttempts collisions Generate fails
with models.ErrCapacityExhausted.

# Races

Two requests can draw the same free code at the same time. The session table
has a unique constraint on code, so the second insert fails with
models.ErrConflict and the caller draws again.
*/
package idgen
