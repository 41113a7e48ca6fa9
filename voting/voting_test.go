// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"testing"

	"github.com/danielhkuo/planning-poker/models"
)

func votes(values ...string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		votes []*string
		want  string
	}{
		{"strict unanimous", Strict, votes("5", "5", "5"), "5"},
		{"strict disagreement", Strict, votes("5", "8"), "-1"},
		{"strict unanimous non-numeric", Strict, votes("coffee", "coffee"), "coffee"},
		{"strict ignores nil", Strict, append(votes("3", "3"), nil), "3"},
		{"strict no votes", Strict, nil, "-1"},
		{"strict leading zero", Strict, votes("05", "05"), "5"},

		{"median odd", Median, votes("3", "5", "8"), "5"},
		{"median even rounds half up", Median, votes("3", "5", "8", "13"), "7"},
		{"median unsorted", Median, votes("13", "1", "8"), "8"},
		{"median skips tokens", Median, votes("?", "2", "coffee", "4", "6"), "4"},
		{"median no numeric", Median, votes("?"), "0"},
		{"median no votes", Median, nil, "0"},

		{"average", Average, votes("2", "4", "6"), "4"},
		{"average rounds", Average, votes("1", "2"), "2"},
		{"average rounds down", Average, votes("1", "1", "2"), "1"},
		{"average skips tokens", Average, votes("3", "?", "5"), "4"},
		{"average no votes", Average, nil, "0"},
		{"average all nil", Average, []*string{nil, nil}, "0"},
		{"average single long card", Average, votes("9999999999999999"), "9999999999999999"},
		{"average long cards", Average, votes("9999999999999999", "9999999999999998"), "9999999999999999"},
		{"average many long cards", Average, votes("9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999", "9999999999999999"), "9999999999999999"},
		{"median long cards", Median, votes("9999999999999999", "9999999999999998"), "9999999999999999"},
		{"median even long cards", Median, votes("9007199254740993", "9007199254740993"), "9007199254740993"},
		{"strict long card", Strict, votes("0009999999999999", "9999999999999"), "-1"},
		{"majority long card", MajorityRelative, votes("0099999999999999"), "99999999999999"},

		{"majority absolute", MajorityAbsolute, votes("5", "5", "5", "8"), "5"},
		{"majority absolute split", MajorityAbsolute, votes("5", "5", "8", "8"), "-1"},
		{"majority absolute counts tokens", MajorityAbsolute, votes("?", "?", "5"), "?"},
		{"majority absolute tokens dilute", MajorityAbsolute, votes("5", "5", "?", "?"), "-1"},
		{"majority absolute no votes", MajorityAbsolute, nil, "-1"},

		{"majority relative", MajorityRelative, votes("5", "5", "8", "13"), "5"},
		{"majority relative tie first seen", MajorityRelative, votes("8", "5", "5", "8"), "8"},
		{"majority relative no votes", MajorityRelative, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.mode, tt.votes)
			if got != tt.want {
				t.Errorf("Aggregate(%s) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestAggregateEmptyReturnsZeroForNumericModes(t *testing.T) {
	for _, mode := range []Mode{Average, Median, MajorityRelative} {
		if got := Aggregate(mode, nil); got != "0" {
			t.Errorf("%s: expected 0 for no votes, got %q", mode, got)
		}
	}
	for _, mode := range []Mode{Strict, MajorityAbsolute} {
		if got := Aggregate(mode, nil); got != models.NoConsensus {
			t.Errorf("%s: expected %s for no votes, got %q", mode, models.NoConsensus, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"strict":            Strict,
		"median":            Median,
		"average":           Average,
		"majority_absolute": MajorityAbsolute,
		"majority_relative": MajorityRelative,
		"majority_abs":      MajorityAbsolute,
		"majority_rel":      MajorityRelative,
		" Strict ":          Strict,
		"fibonacci":         Average,
		"":                  Average,
	}
	for in, want := range tests {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLookupMode(t *testing.T) {
	tests := []struct {
		in    string
		want  Mode
		known bool
	}{
		{"median", Median, true},
		{"MAJORITY_REL", MajorityRelative, true},
		{"", Average, true},
		{"fibonacci", Average, false},
	}
	for _, tt := range tests {
		got, known := LookupMode(tt.in)
		if got != tt.want || known != tt.known {
			t.Errorf("LookupMode(%q) = %s, %v; want %s, %v", tt.in, got, known, tt.want, tt.known)
		}
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	for _, m := range Modes() {
		if ParseMode(m.String()) != m {
			t.Errorf("mode %d does not round-trip through %q", m, m.String())
		}
	}
	if Mode(42).String() != "average" {
		t.Errorf("unknown mode should render as average")
	}
}

func TestIsNumeric(t *testing.T) {
	for _, c := range []string{"0", "1", "13", "20", "007"} {
		if !IsNumeric(c) {
			t.Errorf("expected %q to be numeric", c)
		}
	}
	for _, c := range []string{"", "?", "coffee", "0.5", "-1", "1 "} {
		if IsNumeric(c) {
			t.Errorf("expected %q not to be numeric", c)
		}
	}
}

func TestTally(t *testing.T) {
	got := Tally(append(votes("5", "8", "5", "?"), nil))
	want := []models.CardCount{{Card: "5", Count: 2}, {Card: "8", Count: 1}, {Card: "?", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
