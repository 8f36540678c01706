package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/service"
)

func TestRenderSummary(t *testing.T) {
	summary := service.CategorizationSummary{
		TotalTransactions: 12,
		Preset:            1,
		LocalMatches:      5,
		UniqueNarrations:  4,
		Batches:           1,
		FailedBatches:     1,
		AIMatched:         4,
		StillOther:        2,
		NewKeywords:       3,
		ByCategory: map[string]int{
			"Food Delivery": 5,
			"Groceries":     5,
			"Other":         2,
		},
		Duration: 1500 * time.Millisecond,
	}

	out := RenderSummary("march.csv", summary)

	assert.Contains(t, out, "march.csv")
	assert.Contains(t, out, "1 preset, 5 matched locally")
	assert.Contains(t, out, "4 unique narrations in 1 batches")
	assert.Contains(t, out, "1 batches failed")
	assert.Contains(t, out, "New keywords:")
	assert.Contains(t, out, "Food Delivery")
}

func TestSortedCategories(t *testing.T) {
	got := sortedCategories(map[string]int{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestRenderTransactions(t *testing.T) {
	txns := []model.Transaction{
		{
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Name:      "UPI/SWIGGY/ref123456789",
			Amount:    decimal.RequireFromString("450.00"),
			Direction: model.DirectionExpense,
			Category:  "Food Delivery",
			Status:    model.StatusLocalMatch,
		},
		{
			RawDate:   "02/03/2024",
			Name:      "SALARY MARCH",
			Amount:    decimal.RequireFromString("50000"),
			Direction: model.DirectionIncome,
			Category:  "Income",
			Status:    model.StatusPreset,
		},
	}

	out := RenderTransactions(txns)

	assert.Contains(t, out, "Narration")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "02/03/2024")
	assert.Contains(t, out, "-450.00")
	assert.Contains(t, out, "50000.00")
	assert.Contains(t, out, "LOCAL_MATCH")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
}
