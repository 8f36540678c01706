package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether money entered or left the account.
type Direction string

const (
	// DirectionExpense is a debit or withdrawal.
	DirectionExpense Direction = "expense"
	// DirectionIncome is a credit or deposit.
	DirectionIncome Direction = "income"
)

// Transaction represents a single statement row moving through the pipeline.
type Transaction struct {
	Date         time.Time            `json:"date"`
	ID           string               `json:"id"`
	RawDate      string               `json:"raw_date,omitempty"`
	Name         string               `json:"narration"`          // Raw narration text
	MerchantName string               `json:"merchant,omitempty"` // Provisional merchant
	Category     string               `json:"category"`
	Hash         string               `json:"hash,omitempty"`
	Direction    Direction            `json:"direction"`
	Status       ClassificationStatus `json:"status,omitempty"`
	Amount       decimal.Decimal      `json:"amount"`
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	date := t.RawDate
	if !t.Date.IsZero() {
		date = t.Date.Format("2006-01-02")
	}
	data := fmt.Sprintf("%s:%s:%s:%s",
		date,
		t.Amount.StringFixed(2),
		t.Direction,
		t.Name)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// NeedsCategory reports whether the transaction still lacks a real category.
func (t *Transaction) NeedsCategory() bool {
	return IsUncategorized(t.Category)
}
