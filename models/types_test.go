package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryKeepsExtraFields(t *testing.T) {
	in := `{"name":"Login page","points_hint":"small","links":["a","b"]}`

	var s Story
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	assert.Equal(t, "Login page", s.Name)
	assert.Nil(t, s.FinalValue)
	assert.False(t, s.Resolved())
	assert.Contains(t, s.Extra, "points_hint")

	v := "5"
	s.FinalValue = &v
	out, err := json.Marshal(s)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "Login page", back["name"])
	assert.Equal(t, "5", back["final_value"])
	assert.Equal(t, "small", back["points_hint"])
	assert.Equal(t, []any{"a", "b"}, back["links"])
}

func TestStoryNullFinalValue(t *testing.T) {
	var s Story
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","final_value":null}`), &s))
	assert.Nil(t, s.FinalValue)
	assert.Nil(t, s.Extra)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","final_value":null}`, string(out))
}

func TestStoryRejectsNonObject(t *testing.T) {
	var s Story
	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"final_value":5}`), &s))
}

func TestStoryWithoutName(t *testing.T) {
	var s Story
	require.NoError(t, json.Unmarshal([]byte(`{"titre":"Dashboard"}`), &s))
	assert.Empty(t, s.Name)
	assert.Contains(t, s.Extra, "titre")

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"titre":"Dashboard","final_value":null}`, string(out))
}
