package llm

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestResultCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newResultCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("missing")
		assert.False(t, found)

		result := model.BatchResult{ID: 3, Category: "Telecom", Merchant: "Airtel", Keyword: "airtel", Confidence: 95}
		cache.set(cacheKey("u1", "AIRTEL PREPAID"), result)

		got, found := cache.get(cacheKey("u1", "AIRTEL PREPAID"))
		assert.True(t, found)
		assert.Equal(t, result, got)
		assert.Len(t, cache.entries, 1)

		_, found = cache.get(cacheKey("u2", "AIRTEL PREPAID"))
		assert.False(t, found, "entries are scoped per user")
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResultCache(20 * time.Millisecond)
		defer cache.Close()

		cache.set("k", model.BatchResult{Category: "Shopping"})
		_, found := cache.get("k")
		assert.True(t, found)

		time.Sleep(40 * time.Millisecond)
		_, found = cache.get("k")
		assert.False(t, found)

		cache.evictExpired(time.Now())
		assert.Empty(t, cache.entries)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := newResultCache(0)
		cache.Close()
		cache.Close()
	})
}
