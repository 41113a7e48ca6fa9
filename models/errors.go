// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

// Failure kinds shared by every layer. Wrap them with fmt.Errorf("...: %w")
// and test with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrNoVotesFound      = errors.New("no votes found")
	ErrCapacityExhausted = errors.New("session code space exhausted")
	ErrConflict          = errors.New("conflict")
)
