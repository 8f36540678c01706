package pattern

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/narration"
)

type compiledKeyword struct {
	re      *regexp.Regexp // nil for substring keywords
	keyword string
	compact string
}

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

type compiledEntry struct {
	category string
	keywords []compiledKeyword
}

// Matcher evaluates narrations against a memory bank.
type Matcher struct {
	entries []compiledEntry
}

// NewMatcher creates a matcher over the bank's entries, in bank order.
// The reserved Other category is never matched.
func NewMatcher(bank *model.MemoryBank) *Matcher {
	m := &Matcher{}
	for _, e := range bank.Entries() {
		if model.IsUncategorized(e.Category) {
			continue
		}
		entry := compiledEntry{category: e.Category}
		for _, kw := range e.Keywords {
			ck := compiledKeyword{keyword: kw, compact: compact(kw)}
			if utf8.RuneCountInString(kw) <= shortKeywordLen {
				ck.re = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(kw) + `(?:$|[^\p{L}\p{N}])`)
			}
			entry.keywords = append(entry.keywords, ck)
		}
		m.entries = append(m.entries, entry)
	}
	return m
}

// Match finds the first category with a keyword matching the cleaned narration.
// Long keywords also match across word splits, so "bigbasket" finds "BIG BASKET".
func (m *Matcher) Match(cleaned string) (Match, bool) {
	text := strings.ToLower(cleaned)
	joined := compact(text)
	for _, e := range m.entries {
		for _, kw := range e.keywords {
			if kw.matches(text, joined) {
				return Match{
					Category: e.category,
					Merchant: titleCase(kw.keyword),
					Keyword:  kw.keyword,
				}, true
			}
		}
	}
	return Match{}, false
}

// Apply categorizes uncategorized transactions in place and returns how many matched.
// Transactions that arrive with a taxonomy category are canonicalized, marked
// preset and left alone; any other label is treated as uncategorized.
// Transactions already in a terminal state are skipped.
func (m *Matcher) Apply(txns []model.Transaction) int {
	matched := 0
	for i := range txns {
		txn := &txns[i]
		if txn.Status.IsTerminal() {
			continue
		}
		if !txn.NeedsCategory() && model.IsKnownCategory(txn.Category) {
			txn.Category = model.CanonicalCategory(txn.Category)
			txn.Status = model.StatusPreset
			continue
		}

		if match, ok := m.matchNarration(txn.Name); ok {
			txn.Category = match.Category
			txn.MerchantName = match.Merchant
			txn.Status = model.StatusLocalMatch
			matched++
			continue
		}

		txn.Category = model.CategoryOther
		txn.Status = model.StatusNeedsAI
	}
	return matched
}

// matchNarration tries the normalized narration first, then the raw text,
// which still carries the prefixes and payment-app tokens normalization drops.
func (m *Matcher) matchNarration(raw string) (Match, bool) {
	if match, ok := m.Match(narration.Normalize(raw)); ok {
		return match, true
	}
	return m.Match(raw)
}

func (k compiledKeyword) matches(text, joined string) bool {
	if k.re != nil {
		return k.re.MatchString(text)
	}
	return strings.Contains(text, k.keyword) || (k.compact != "" && strings.Contains(joined, k.compact))
}

func compact(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
