package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-statements/internal/model"
)

// Txn builds an uncategorized expense with the given narration and amount.
func Txn(narration, amount string) model.Transaction {
	return model.Transaction{
		ID:        fmt.Sprintf("txn-%s-%s", narration, amount),
		Name:      narration,
		Amount:    decimal.RequireFromString(amount),
		Direction: model.DirectionExpense,
		Category:  model.CategoryOther,
		Date:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Narrations builds one uncategorized transaction per narration.
func Narrations(narrations ...string) []model.Transaction {
	txns := make([]model.Transaction, len(narrations))
	for i, n := range narrations {
		txns[i] = Txn(n, "100.00")
		txns[i].ID = fmt.Sprintf("txn-%d", i)
	}
	return txns
}
