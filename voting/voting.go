// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"math/big"
	"sort"
	"strings"

	"github.com/danielhkuo/planning-poker/models"
)

// Mode selects how a story's votes are reduced to one value.
type Mode int

const (
	Average Mode = iota
	Strict
	Median
	MajorityAbsolute
	MajorityRelative
)

var modeNames = map[Mode]string{
	Average:          "average",
	Strict:           "strict",
	Median:           "median",
	MajorityAbsolute: "majority_absolute",
	MajorityRelative: "majority_relative",
}

// Short spellings used by older clients.
var modeAliases = map[string]Mode{
	"majority_abs": MajorityAbsolute,
	"majority_rel": MajorityRelative,
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return modeNames[Average]
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{Average, Strict, Median, MajorityAbsolute, MajorityRelative}
}

// ParseMode maps a stored or requested mode name to a Mode.
// Unknown names fall back to Average.
func ParseMode(s string) Mode {
	m, _ := LookupMode(s)
	return m
}

// LookupMode is ParseMode that also reports whether the name was known.
// An empty name selects Average and counts as known.
func LookupMode(s string) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Average, true
	}
	for m, name := range modeNames {
		if name == s {
			return m, true
		}
	}
	if m, ok := modeAliases[s]; ok {
		return m, true
	}
	return Average, false
}

// Aggregate reduces the votes of one round to a final value.
// Nil and empty votes are ignored. The result is always a string so the
// "-1" sentinel, the "0" fallback and non-numeric cards share one type.
func Aggregate(mode Mode, votes []*string) string {
	valid := validVotes(votes)

	switch mode {
	case Strict:
		return strict(valid)
	case Median:
		return median(numericVotes(valid))
	case MajorityAbsolute:
		return majorityAbsolute(valid)
	case MajorityRelative:
		return majorityRelative(valid)
	case Average:
		return average(numericVotes(valid))
	default:
		return average(numericVotes(valid))
	}
}

// IsNumeric reports whether a card is made of ASCII digits only.
func IsNumeric(card string) bool {
	if card == "" {
		return false
	}
	for i := 0; i < len(card); i++ {
		if card[i] < '0' || card[i] > '9' {
			return false
		}
	}
	return true
}

// Tally counts each distinct card in order of first appearance.
func Tally(votes []*string) []models.CardCount {
	valid := validVotes(votes)
	counts := make([]models.CardCount, 0, len(valid))
	index := make(map[string]int, len(valid))
	for _, v := range valid {
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, models.CardCount{Card: v, Count: 1})
	}
	return counts
}

func strict(valid []string) string {
	if len(valid) == 0 {
		return models.NoConsensus
	}
	for _, v := range valid[1:] {
		if v != valid[0] {
			return models.NoConsensus
		}
	}
	return normalize(valid[0])
}

func median(nums []*big.Int) string {
	if len(nums) == 0 {
		return "0"
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].Cmp(nums[j]) < 0 })

	n := len(nums)
	if n%2 == 1 {
		return nums[n/2].String()
	}
	sum := new(big.Int).Add(nums[n/2-1], nums[n/2])
	return roundDiv(sum, 2).String()
}

func average(nums []*big.Int) string {
	if len(nums) == 0 {
		return "0"
	}
	sum := new(big.Int)
	for _, n := range nums {
		sum.Add(sum, n)
	}
	return roundDiv(sum, len(nums)).String()
}

// roundDiv returns sum/n rounded half up. Cards are never negative, so this
// matches rounding half away from zero.
func roundDiv(sum *big.Int, n int) *big.Int {
	d := big.NewInt(int64(n))
	num := new(big.Int).Lsh(sum, 1)
	num.Add(num, d)
	return num.Quo(num, d.Lsh(d, 1))
}

func majorityAbsolute(valid []string) string {
	top, count := mostFrequent(valid)
	if count*2 <= len(valid) {
		return models.NoConsensus
	}
	return normalize(top)
}

func majorityRelative(valid []string) string {
	if len(valid) == 0 {
		return "0"
	}
	top, _ := mostFrequent(valid)
	return normalize(top)
}

// mostFrequent returns the most common value; ties go to the value seen first.
func mostFrequent(valid []string) (string, int) {
	var top string
	best := 0
	for _, c := range Tally(ptrs(valid)) {
		if c.Count > best {
			top, best = c.Card, c.Count
		}
	}
	return top, best
}

func validVotes(votes []*string) []string {
	valid := make([]string, 0, len(votes))
	for _, v := range votes {
		if v == nil || *v == "" {
			continue
		}
		valid = append(valid, *v)
	}
	return valid
}

func numericVotes(valid []string) []*big.Int {
	nums := make([]*big.Int, 0, len(valid))
	for _, v := range valid {
		if !IsNumeric(v) {
			continue
		}
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// normalize strips leading zeros from numeric cards and leaves tokens like
// "coffee" or "?" untouched.
func normalize(card string) string {
	if !IsNumeric(card) {
		return card
	}
	n, ok := new(big.Int).SetString(card, 10)
	if !ok {
		return card
	}
	return n.String()
}

func ptrs(values []string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}
