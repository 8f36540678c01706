package model

import (
	"sort"
	"strings"
)

// CategoryOther is the reserved fallback category.
const CategoryOther = "Other"

// taxonomy is the closed set of categories a transaction may end up in.
// Order matters: memory banks built from maps follow it.
var taxonomy = []string{
	"Groceries",
	"Restaurants & Dining",
	"Food Delivery",
	"Shopping",
	"Transportation",
	"Fuel",
	"Travel",
	"Utilities",
	"Telecom",
	"Rent & Housing",
	"Healthcare",
	"Insurance",
	"Education",
	"Entertainment",
	"Subscriptions",
	"Personal Care",
	"Investments",
	"Loan & EMI",
	"Credit Card Payment",
	"Taxes",
	"Salary",
	"Transfers",
	"Cash Withdrawal",
	"Fees & Charges",
	"Charity",
	CategoryOther,
}

var taxonomyIndex = func() map[string]int {
	idx := make(map[string]int, len(taxonomy))
	for i, c := range taxonomy {
		idx[strings.ToLower(c)] = i
	}
	return idx
}()

// Taxonomy returns a copy of the fixed category list.
func Taxonomy() []string {
	out := make([]string, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// IsUncategorized reports whether c is empty, a dash, or Other.
func IsUncategorized(c string) bool {
	c = strings.TrimSpace(c)
	return c == "" || c == "-" || strings.EqualFold(c, CategoryOther)
}

// IsKnownCategory reports whether c belongs to the taxonomy (case-insensitive).
func IsKnownCategory(c string) bool {
	_, ok := taxonomyIndex[strings.ToLower(strings.TrimSpace(c))]
	return ok
}

// CanonicalCategory maps a label onto its taxonomy spelling, falling back to Other.
func CanonicalCategory(c string) string {
	i, ok := taxonomyIndex[strings.ToLower(strings.TrimSpace(c))]
	if !ok {
		return CategoryOther
	}
	return taxonomy[i]
}

// sortCategories orders names by taxonomy position, unknown names last alphabetically.
func sortCategories(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := taxonomyIndex[strings.ToLower(names[i])]
		b, bok := taxonomyIndex[strings.ToLower(names[j])]
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		case bok:
			return false
		default:
			return names[i] < names[j]
		}
	})
}
