// Package testutil provides shared helpers for tests that need storage or
// statement fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/storage"
)

// TestDB represents a migrated in-memory test database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.SeedKeywords("user-1", map[string][]string{"Food Delivery": {"swiggy"}})
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedKeywords stores learned keyword rules for userID, in taxonomy order.
func (db *TestDB) SeedKeywords(userID string, keywords map[string][]string) {
	db.t.Helper()

	var learned []model.LearnedKeyword
	for _, e := range model.MemoryBankFromMap(keywords).Entries() {
		for _, k := range e.Keywords {
			learned = append(learned, model.LearnedKeyword{Category: e.Category, Keyword: k})
		}
	}
	if err := db.Storage.UpsertKeywordRules(context.Background(), userID, learned); err != nil {
		db.t.Fatalf("failed to seed keywords: %v", err)
	}
}

// MemoryBank returns the stored bank for userID or fails the test.
func (db *TestDB) MemoryBank(userID string) *model.MemoryBank {
	db.t.Helper()

	bank, err := db.Storage.GetMemoryBank(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to load memory bank: %v", err)
	}
	return bank
}
