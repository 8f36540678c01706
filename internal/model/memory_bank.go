package model

import "strings"

// BankEntry holds the keywords known to indicate one category.
type BankEntry struct {
	Category string
	Keywords []string
}

// MemoryBank is an ordered set of category keywords. It only ever grows.
type MemoryBank struct {
	index   map[string]int
	entries []BankEntry
}

// NewMemoryBank returns an empty memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{index: make(map[string]int)}
}

// MemoryBankFromMap builds a bank from a category -> keywords map.
// Categories follow taxonomy order; labels outside the taxonomy are dropped.
func MemoryBankFromMap(m map[string][]string) *MemoryBank {
	b := NewMemoryBank()
	names := make([]string, 0, len(m))
	for c := range m {
		names = append(names, c)
	}
	sortCategories(names)
	for _, c := range names {
		for _, k := range m[c] {
			b.Add(c, k)
		}
	}
	return b
}

// NormalizeKeyword lowercases and trims a keyword.
func NormalizeKeyword(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Add records keyword under the taxonomy spelling of category. It returns
// false when the category is not in the taxonomy, or the keyword was empty or
// already present for that category.
func (b *MemoryBank) Add(category, keyword string) bool {
	keyword = NormalizeKeyword(keyword)
	if !IsKnownCategory(category) || keyword == "" {
		return false
	}
	category = CanonicalCategory(category)
	if b.index == nil {
		b.index = make(map[string]int)
	}
	i, ok := b.index[category]
	if !ok {
		b.entries = append(b.entries, BankEntry{Category: category})
		i = len(b.entries) - 1
		b.index[category] = i
	}
	for _, existing := range b.entries[i].Keywords {
		if existing == keyword {
			return false
		}
	}
	b.entries[i].Keywords = append(b.entries[i].Keywords, keyword)
	return true
}

// Merge adds every keyword of other to b, keeping b's order first.
func (b *MemoryBank) Merge(other *MemoryBank) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		for _, k := range e.Keywords {
			b.Add(e.Category, k)
		}
	}
}

// HasKeyword reports whether keyword is known under any category.
func (b *MemoryBank) HasKeyword(keyword string) bool {
	keyword = NormalizeKeyword(keyword)
	for _, e := range b.entries {
		for _, k := range e.Keywords {
			if k == keyword {
				return true
			}
		}
	}
	return false
}

// Entries returns the bank entries in order.
func (b *MemoryBank) Entries() []BankEntry {
	if b == nil {
		return nil
	}
	out := make([]BankEntry, len(b.entries))
	for i, e := range b.entries {
		out[i] = BankEntry{Category: e.Category, Keywords: append([]string(nil), e.Keywords...)}
	}
	return out
}

// Len returns the total number of keywords.
func (b *MemoryBank) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, e := range b.entries {
		n += len(e.Keywords)
	}
	return n
}

// ToMap returns the bank as a category -> keywords map.
func (b *MemoryBank) ToMap() map[string][]string {
	out := make(map[string][]string)
	for _, e := range b.Entries() {
		out[e.Category] = e.Keywords
	}
	return out
}
