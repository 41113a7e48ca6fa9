// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package lifecycle holds the session status rules and story resolution.
//
// Sessions move open → in_progress → closed. The first join moves an open
// session to in_progress, an explicit close moves any session to closed, and
// nothing moves a session out of closed. Stories resolve independently of the
// session status.
package lifecycle

import (
	"fmt"

	"github.com/danielhkuo/planning-poker/models"
)

// ParseStatus validates a stored or requested status value.
func ParseStatus(s string) (models.Status, error) {
	switch st := models.Status(s); st {
	case models.StatusOpen, models.StatusInProgress, models.StatusClosed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", models.ErrValidation, s)
	}
}

// CanJoin reports whether new players may enter a session.
func CanJoin(status models.Status) bool {
	return status != models.StatusClosed
}

// AfterJoin returns the status a session has once a join completed.
func AfterJoin(status models.Status, created bool) models.Status {
	if created && status == models.StatusOpen {
		return models.StatusInProgress
	}
	return status
}

// Close validates the facilitator's confirmation and returns the new status.
// Closing an already closed session is a no-op.
func Close(current models.Status, confirm string) (models.Status, error) {
	if models.Status(confirm) != models.StatusClosed {
		return current, fmt.Errorf("%w: status must be %q, got %q", models.ErrValidation, models.StatusClosed, confirm)
	}
	return models.StatusClosed, nil
}

// CheckStoryIndex fails unless index addresses an existing story.
func CheckStoryIndex(stories []models.Story, index int) error {
	if index < 0 || index >= len(stories) {
		return fmt.Errorf("%w: story_index %d out of range [0, %d)", models.ErrValidation, index, len(stories))
	}
	return nil
}

// CheckVotesPresent is the precondition for aggregating a story.
func CheckVotesPresent(participants int) error {
	if participants == 0 {
		return models.ErrNoVotesFound
	}
	return nil
}

// ResolveStory returns a copy of stories with the final value of one story
// set. A resolved story may be resolved again; the new value replaces the old.
func ResolveStory(stories []models.Story, index int, value string) ([]models.Story, error) {
	if err := CheckStoryIndex(stories, index); err != nil {
		return nil, err
	}
	out := make([]models.Story, len(stories))
	copy(out, stories)
	v := value
	out[index].FinalValue = &v
	return out, nil
}
