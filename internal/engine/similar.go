package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/narration"
)

const (
	recurringMinMonths = 3
	recurringTolerance = 0.10
)

// RecurringMerchant is a merchant seen with a stable amount across several months.
type RecurringMerchant struct {
	TypicalAmount decimal.Decimal `json:"typical_amount"`
	Merchant      string          `json:"merchant"`
	Category      string          `json:"category"`
	Occurrences   int             `json:"occurrences"`
	Months        int             `json:"months"`
}

// GroupSimilar groups transaction indices by merchant key. Narrations without
// a key are left out.
func GroupSimilar(txns []model.Transaction) map[string][]int {
	groups := make(map[string][]int)
	for i, txn := range txns {
		key := narration.MerchantIdentifier(txn.Name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], i)
	}
	return groups
}

// ApplyToSimilar assigns category to the transaction at index and every other
// transaction sharing its merchant key. It returns the number updated and the
// keyword to remember for the key.
func ApplyToSimilar(txns []model.Transaction, index int, category string) (int, model.LearnedKeyword, error) {
	if index < 0 || index >= len(txns) {
		return 0, model.LearnedKeyword{}, fmt.Errorf("transaction index %d out of range: %w", index, common.ErrNotFound)
	}
	if !model.IsKnownCategory(category) || model.IsUncategorized(category) {
		return 0, model.LearnedKeyword{}, common.NewUserError(fmt.Sprintf("unknown category %q", category), common.ErrInvalidInput)
	}
	category = model.CanonicalCategory(category)

	key := narration.MerchantIdentifier(txns[index].Name)
	if key == "" {
		txns[index].Category = category
		txns[index].Status = model.StatusUserAssigned
		return 1, model.LearnedKeyword{}, nil
	}

	updated := 0
	for i := range txns {
		if narration.MerchantIdentifier(txns[i].Name) != key {
			continue
		}
		txns[i].Category = category
		txns[i].Status = model.StatusUserAssigned
		updated++
	}
	return updated, model.LearnedKeyword{Category: category, Keyword: key}, nil
}

// DetectRecurring reports merchant keys that appear in at least three distinct
// calendar months with every amount within 10% of the median.
func DetectRecurring(txns []model.Transaction) []RecurringMerchant {
	var recurring []RecurringMerchant
	for key, indices := range GroupSimilar(txns) {
		months := make(map[string]bool)
		amounts := make([]decimal.Decimal, 0, len(indices))
		for _, i := range indices {
			if txns[i].Date.IsZero() {
				continue
			}
			months[txns[i].Date.Format("2006-01")] = true
			amounts = append(amounts, txns[i].Amount.Abs())
		}
		if len(months) < recurringMinMonths {
			continue
		}

		median := medianAmount(amounts)
		if !withinTolerance(amounts, median) {
			continue
		}

		recurring = append(recurring, RecurringMerchant{
			Merchant:      key,
			Category:      txns[indices[0]].Category,
			Occurrences:   len(amounts),
			Months:        len(months),
			TypicalAmount: median,
		})
	}

	sort.Slice(recurring, func(i, j int) bool {
		return recurring[i].Merchant < recurring[j].Merchant
	})
	return recurring
}

func medianAmount(amounts []decimal.Decimal) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), amounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

func withinTolerance(amounts []decimal.Decimal, median decimal.Decimal) bool {
	limit := median.Mul(decimal.NewFromFloat(recurringTolerance))
	for _, a := range amounts {
		if a.Sub(median).Abs().GreaterThan(limit) {
			return false
		}
	}
	return true
}
