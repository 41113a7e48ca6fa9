package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/planning-poker/models"
)

func TestAfterJoin(t *testing.T) {
	tests := []struct {
		name    string
		status  models.Status
		created bool
		want    models.Status
	}{
		{"first join opens round", models.StatusOpen, true, models.StatusInProgress},
		{"rejoin of existing player", models.StatusOpen, false, models.StatusOpen},
		{"later join", models.StatusInProgress, true, models.StatusInProgress},
		{"closed stays closed", models.StatusClosed, true, models.StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AfterJoin(tt.status, tt.created))
		})
	}
}

func TestCanJoin(t *testing.T) {
	assert.True(t, CanJoin(models.StatusOpen))
	assert.True(t, CanJoin(models.StatusInProgress))
	assert.False(t, CanJoin(models.StatusClosed))
}

func TestClose(t *testing.T) {
	for _, from := range []models.Status{models.StatusOpen, models.StatusInProgress, models.StatusClosed} {
		got, err := Close(from, "closed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusClosed, got)
	}

	for _, bad := range []string{"", "open", "in_progress", "invalid", "CLOSED"} {
		got, err := Close(models.StatusInProgress, bad)
		assert.True(t, errors.Is(err, models.ErrValidation), "confirm %q", bad)
		assert.Equal(t, models.StatusInProgress, got)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, st)

	_, err = ParseStatus("draft")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestResolveStory(t *testing.T) {
	stories := []models.Story{{Name: "A"}, {Name: "B"}}

	out, err := ResolveStory(stories, 1, "8")
	require.NoError(t, err)
	require.NotNil(t, out[1].FinalValue)
	assert.Equal(t, "8", *out[1].FinalValue)
	assert.Nil(t, out[0].FinalValue)
	assert.Nil(t, stories[1].FinalValue, "input must not be modified")

	again, err := ResolveStory(out, 1, "13")
	require.NoError(t, err)
	assert.Equal(t, "13", *again[1].FinalValue)
	assert.Equal(t, "8", *out[1].FinalValue)
}

func TestResolveStoryOutOfRange(t *testing.T) {
	stories := []models.Story{{Name: "A"}}
	for _, idx := range []int{-1, 1, 999} {
		_, err := ResolveStory(stories, idx, "5")
		assert.ErrorIs(t, err, models.ErrValidation)
	}
	_, err := ResolveStory(nil, 0, "5")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCheckVotesPresent(t *testing.T) {
	assert.ErrorIs(t, CheckVotesPresent(0), models.ErrNoVotesFound)
	assert.NoError(t, CheckVotesPresent(3))
}
