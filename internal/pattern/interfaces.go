// Package pattern matches narrations against a user's memory bank of learned keywords.
package pattern

// Match is a successful local categorization.
type Match struct {
	Category string
	Merchant string
	Keyword  string
}

// shortKeywordLen is the longest keyword that must match a whole word.
// Longer keywords match anywhere in the narration.
const shortKeywordLen = 3
