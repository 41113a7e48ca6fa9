// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting reduces a round of card votes to a single story value.

# Modes

	strict             all votes identical, else "-1"
	median             middle numeric vote (even count: rounded mean of the two middles)
	average            rounded mean of numeric votes
	majority_absolute  most frequent card if it holds more than half the votes, else "-1"
	majority_relative  most frequent card

Unknown mode names fall back to average. The short names majority_abs and
majority_rel are accepted.

# Valid Votes

Nil and empty votes are ignored everywhere. Numeric modes (median, average)
also skip cards that are not plain digits, such as "?" or "coffee"; strict
and the majority modes count them like any other card.

# Rounding

Means are rounded half up in exact integer arithmetic (math/big), so a median
of 5 and 8 gives 7 and a card of any length survives unchanged.

# Ties

The majority modes break ties by first appearance in vote order. Votes are
listed by join time, so the earliest player's card wins a tie.

# Empty Rounds

	average, median, majority_relative → "0"
	strict, majority_absolute          → "-1"

# Example

	v := voting.Aggregate(voting.ParseMode(session.VotingMode), votes)
*/
package voting
