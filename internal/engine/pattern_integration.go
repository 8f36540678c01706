package engine

import (
	"context"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/pattern"
)

// loadMemoryBank combines the persisted bank with keywords supplied by the client.
// A storage failure degrades to the client keywords alone.
func (c *Categorizer) loadMemoryBank(ctx context.Context, userID string, clientKeywords map[string][]string) *model.MemoryBank {
	bank := model.NewMemoryBank()
	if c.rules != nil && userID != "" {
		stored, err := c.rules.GetMemoryBank(ctx, userID)
		if err != nil {
			c.logger.Warn("Failed to load memory bank, using client keywords only",
				"user_id", userID,
				"error", err)
		} else {
			bank.Merge(stored)
		}
	}
	bank.Merge(model.MemoryBankFromMap(clientKeywords))
	c.logger.Debug("Loaded memory bank", "user_id", userID, "keywords", bank.Len())
	return bank
}

// applyMemoryBank runs the local matcher over txns and returns the number matched.
func (c *Categorizer) applyMemoryBank(bank *model.MemoryBank, txns []model.Transaction) int {
	matched := pattern.NewMatcher(bank).Apply(txns)
	c.logger.Debug("Applied memory bank", "matched", matched, "total", len(txns))
	return matched
}
