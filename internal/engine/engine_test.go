package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/testutil"
)

var errBoom = errors.New("boom")

type recordingTracker struct {
	progress map[string]int
	usage    []model.UsageEvent
	mu       sync.Mutex
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{progress: make(map[string]int)}
}

func (r *recordingTracker) IncrementProcessed(_ context.Context, uploadID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[uploadID] += n
	return nil
}

func (r *recordingTracker) RecordUsage(_ context.Context, event model.UsageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = append(r.usage, event)
	return nil
}

type failingRuleStore struct {
	bank *model.MemoryBank
}

func (f *failingRuleStore) GetMemoryBank(context.Context, string) (*model.MemoryBank, error) {
	if f.bank == nil {
		return nil, errBoom
	}
	return f.bank, nil
}

func (f *failingRuleStore) UpsertKeywordRules(context.Context, string, []model.LearnedKeyword) error {
	return errBoom
}

func swiggyAnswer() MockAnswer {
	return MockAnswer{Match: "swiggy", Merchant: "Swiggy", Category: "Restaurants & Dining", Keyword: "swiggy", Confidence: 95}
}

func TestCategorize_UnknownMerchantEscalates(t *testing.T) {
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{
		UserID:       "user-1",
		Transactions: testutil.Narrations("UPI-SWIGGY-swiggy@icici-ref123456789"),
	})
	require.NoError(t, err)

	require.Equal(t, 1, mock.CallCount())
	txn := result.Transactions[0]
	assert.Equal(t, "Restaurants & Dining", txn.Category)
	assert.Equal(t, "Swiggy", txn.MerchantName)
	assert.Equal(t, model.StatusAIMatched, txn.Status)
	assert.Equal(t, []model.LearnedKeyword{{Category: "Restaurants & Dining", Keyword: "swiggy"}}, result.Learned)
	assert.Equal(t, 1, result.Summary.NewKeywords)
}

func TestCategorize_LocalMatchSkipsClassifier(t *testing.T) {
	mock := NewMockClassifier()
	c := New(mock, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{
		UserID:         "user-1",
		Transactions:   testutil.Narrations("UPI-ZEPTO-xyz@icici"),
		ClientKeywords: map[string][]string{"Groceries": {"zepto"}},
	})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	txn := result.Transactions[0]
	assert.Equal(t, "Groceries", txn.Category)
	assert.Equal(t, "Zepto", txn.MerchantName)
	assert.Equal(t, model.StatusLocalMatch, txn.Status)
	assert.Equal(t, 1, result.Summary.LocalMatches)
	assert.Empty(t, result.Learned)
}

func TestCategorize_DeduplicatesNarrations(t *testing.T) {
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{})

	txns := testutil.Narrations(
		"UPI-SWIGGY-swiggy@icici-ref1",
		"UPI-SWIGGY-swiggy@icici-ref1",
		"UPI-SWIGGY-swiggy@icici-ref1",
		"Mystery shop 42",
	)

	result, err := c.Categorize(context.Background(), Request{UserID: "user-1", Transactions: txns})
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Items, 2)
	assert.Equal(t, "UPI-SWIGGY-swiggy@icici-ref1", calls[0].Items[0].Narration)
	assert.Equal(t, "Mystery shop 42", calls[0].Items[1].Narration)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "Restaurants & Dining", result.Transactions[i].Category)
		assert.Equal(t, "Swiggy", result.Transactions[i].MerchantName)
	}
	assert.Equal(t, model.CategoryOther, result.Transactions[3].Category)
	assert.Equal(t, model.StatusStillOther, result.Transactions[3].Status)
	assert.Equal(t, 2, result.Summary.UniqueNarrations)
}

func TestCategorize_FailedBatchLeavesOthersIntact(t *testing.T) {
	narrations := make([]string, 120)
	for i := range narrations {
		narrations[i] = fmt.Sprintf("SHOP%03d PURCHASE", i)
	}

	mock := NewMockClassifier(MockAnswer{Match: "purchase", Merchant: "Shop", Category: "Shopping", Confidence: 50})
	mock.FailWhen = func(req model.BatchRequest) error {
		if req.Items[0].ID == 50 {
			return errBoom
		}
		return nil
	}
	tracker := newRecordingTracker()
	c := New(mock, Dependencies{Progress: tracker, Usage: tracker})

	result, err := c.Categorize(context.Background(), Request{
		UserID:       "user-1",
		UploadID:     "upload-1",
		Transactions: testutil.Narrations(narrations...),
	})
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 3)
	sizes := map[int]int{}
	for _, call := range calls {
		sizes[call.Items[0].ID] = len(call.Items)
	}
	assert.Equal(t, map[int]int{0: 50, 50: 50, 100: 20}, sizes)

	for i, txn := range result.Transactions {
		if i >= 50 && i < 100 {
			assert.Equal(t, model.CategoryOther, txn.Category, "index %d", i)
			assert.Equal(t, model.StatusStillOther, txn.Status, "index %d", i)
			continue
		}
		assert.Equal(t, "Shopping", txn.Category, "index %d", i)
		assert.Equal(t, model.StatusAIMatched, txn.Status, "index %d", i)
	}

	assert.Equal(t, 3, result.Summary.Batches)
	assert.Equal(t, 1, result.Summary.FailedBatches)
	assert.Equal(t, 70, result.Summary.AIMatched)
	assert.Equal(t, 50, result.Summary.StillOther)

	assert.Equal(t, 120, tracker.progress["upload-1"])
	require.Len(t, tracker.usage, 2)
	assert.Equal(t, "categorize", tracker.usage[0].Feature)
}

func TestCategorize_LearningGate(t *testing.T) {
	tests := []struct {
		name      string
		answer    MockAnswer
		wantLearn bool
	}{
		{
			name:      "high confidence learns",
			answer:    MockAnswer{Match: "acme", Category: "Shopping", Keyword: "Acme", Confidence: 81},
			wantLearn: true,
		},
		{
			name:   "exactly eighty does not learn",
			answer: MockAnswer{Match: "acme", Category: "Shopping", Keyword: "acme", Confidence: 80},
		},
		{
			name:   "low confidence does not learn",
			answer: MockAnswer{Match: "acme", Category: "Shopping", Keyword: "acme", Confidence: 42},
		},
		{
			name:   "other never learns",
			answer: MockAnswer{Match: "acme", Category: "Other", Keyword: "acme", Confidence: 99},
		},
		{
			name:   "empty keyword never learns",
			answer: MockAnswer{Match: "acme", Category: "Shopping", Confidence: 99},
		},
		{
			name:   "unknown category falls back to other",
			answer: MockAnswer{Match: "acme", Category: "Space Travel", Keyword: "acme", Confidence: 99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewMockClassifier(tt.answer), Dependencies{})

			result, err := c.Categorize(context.Background(), Request{
				UserID:       "user-1",
				Transactions: testutil.Narrations("ACME STORES 991"),
			})
			require.NoError(t, err)

			if tt.wantLearn {
				assert.Equal(t, []model.LearnedKeyword{{Category: "Shopping", Keyword: "acme"}}, result.Learned)
			} else {
				assert.Empty(t, result.Learned)
			}
		})
	}
}

func TestCategorize_SkipsKeywordsAlreadyKnown(t *testing.T) {
	mock := NewMockClassifier(
		MockAnswer{Match: "blinkit", Category: "Groceries", Keyword: "blinkit", Confidence: 90},
		MockAnswer{Match: "grofers", Category: "Groceries", Keyword: "blinkit", Confidence: 90},
	)
	c := New(mock, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{
		UserID:         "user-1",
		Transactions:   testutil.Narrations("BLINKIT ORDER", "GROFERS ORDER"),
		ClientKeywords: map[string][]string{"Groceries": {"bigbasket"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.LearnedKeyword{{Category: "Groceries", Keyword: "blinkit"}}, result.Learned)

	result, err = c.Categorize(context.Background(), Request{
		UserID:         "user-1",
		Transactions:   testutil.Narrations("GROFERS ORDER"),
		ClientKeywords: map[string][]string{"Groceries": {"bigbasket"}, "Shopping": {"blinkit"}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Learned)
}

func TestCategorize_PresetTransactionsUntouched(t *testing.T) {
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{})

	txns := testutil.Narrations("UPI-SWIGGY-swiggy@icici")
	txns[0].Category = "Travel"

	result, err := c.Categorize(context.Background(), Request{UserID: "user-1", Transactions: txns})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	assert.Equal(t, "Travel", result.Transactions[0].Category)
	assert.Equal(t, model.StatusPreset, result.Transactions[0].Status)
	assert.Equal(t, 1, result.Summary.Preset)
}

func TestCategorize_WithoutClassifier(t *testing.T) {
	c := New(nil, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{
		UserID:       "user-1",
		Transactions: testutil.Narrations("UNKNOWN VENDOR"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusStillOther, result.Transactions[0].Status)
	assert.Equal(t, 0, result.Summary.Batches)
}

func TestCategorize_PersistenceFailureTolerated(t *testing.T) {
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{Rules: &failingRuleStore{}})

	result, err := c.Categorize(context.Background(), Request{
		UserID:         "user-1",
		Transactions:   testutil.Narrations("SWIGGY ORDER 1", "ZEPTO ORDER 2"),
		ClientKeywords: map[string][]string{"Groceries": {"zepto"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Restaurants & Dining", result.Transactions[0].Category)
	assert.Equal(t, "Groceries", result.Transactions[1].Category)
	assert.Len(t, result.Learned, 1)
}

func TestCategorize_LearnedKeywordsRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{Rules: db.Storage})
	ctx := context.Background()

	first, err := c.Categorize(ctx, Request{
		UserID:       "user-1",
		Transactions: testutil.Narrations("UPI-SWIGGY-swiggy@icici-ref123456789"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, mock.CallCount())

	assert.Equal(t, []string{"swiggy"}, db.MemoryBank("user-1").ToMap()["Restaurants & Dining"])

	// A fresh categorizer without storage sees the keyword only through the client map.
	mock.Reset()
	stateless := New(mock, Dependencies{})
	second, err := stateless.Categorize(ctx, Request{
		UserID:         "user-1",
		Transactions:   testutil.Narrations("UPI-SWIGGY-swiggy@okaxis-ref987654321"),
		ClientKeywords: model.GroupLearned(first.Learned),
	})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	assert.Equal(t, model.StatusLocalMatch, second.Transactions[0].Status)
	assert.Equal(t, "Restaurants & Dining", second.Transactions[0].Category)
}

func TestCategorize_StoredBankUsed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedKeywords("user-1", map[string][]string{"Fuel": {"indian oil"}})
	mock := NewMockClassifier()
	c := New(mock, Dependencies{Rules: db.Storage})

	result, err := c.Categorize(context.Background(), Request{
		UserID:       "user-1",
		Transactions: testutil.Narrations("POS INDIAN OIL PETROL PUMP"),
	})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	assert.Equal(t, "Fuel", result.Transactions[0].Category)
}

func TestCategorize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(NewMockClassifier(), Dependencies{}).Categorize(ctx, Request{UserID: "user-1"})
	require.ErrorIs(t, err, context.Canceled)
}

// inflightClassifier tracks how many batches are being classified at once.
// When release is set, each call waits until expect calls have arrived.
type inflightClassifier struct {
	release chan struct{}
	expect  int
	active  int
	peak    int
	arrived int
	mu      sync.Mutex
}

func newInflightClassifier(expect int) *inflightClassifier {
	return &inflightClassifier{release: make(chan struct{}), expect: expect}
}

func (c *inflightClassifier) ClassifyBatch(ctx context.Context, req model.BatchRequest) (model.BatchResponse, error) {
	c.mu.Lock()
	c.active++
	c.arrived++
	c.peak = max(c.peak, c.active)
	if c.arrived == c.expect {
		close(c.release)
	}
	c.mu.Unlock()

	select {
	case <-c.release:
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
	}
	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	c.active--
	c.mu.Unlock()

	resp := model.BatchResponse{}
	for _, item := range req.Items {
		resp.Results = append(resp.Results, model.BatchResult{ID: item.ID, Category: model.CategoryOther})
	}
	return resp, nil
}

func (c *inflightClassifier) peakInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

func vendorNarrations(n int) []model.Transaction {
	narrations := make([]string, n)
	for i := range narrations {
		narrations[i] = fmt.Sprintf("VENDOR%03d", i)
	}
	return testutil.Narrations(narrations...)
}

func TestCategorize_BatchesRunConcurrently(t *testing.T) {
	classifier := newInflightClassifier(3)
	c := New(classifier, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{UserID: "u", Transactions: vendorNarrations(120)})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Summary.Batches)
	assert.Equal(t, 3, classifier.peakInFlight())
}

func TestCategorize_ConcurrencyLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		batches int
	}{
		{name: "one at a time", limit: 1, batches: 3},
		{name: "two at a time", limit: 2, batches: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := newInflightClassifier(tt.limit)
			config := DefaultConfig()
			config.BatchSize = 10
			config.MaxConcurrentBatches = tt.limit
			c := NewWithConfig(classifier, Dependencies{}, config)

			result, err := c.Categorize(context.Background(), Request{
				UserID:       "u",
				Transactions: vendorNarrations(tt.batches * 10),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.batches, result.Summary.Batches)
			assert.Equal(t, tt.limit, classifier.peakInFlight())
		})
	}
}

// strayClassifier answers every batch with a result for an ID it was not sent.
type strayClassifier struct {
	strayID int
	failAt  int
}

func (s strayClassifier) ClassifyBatch(_ context.Context, req model.BatchRequest) (model.BatchResponse, error) {
	if req.Items[0].ID == s.failAt {
		return model.BatchResponse{}, errBoom
	}
	return model.BatchResponse{Results: []model.BatchResult{
		{ID: s.strayID, Category: "Shopping", Merchant: "Stray", Keyword: "stray", Confidence: 99},
	}}, nil
}

func TestCategorize_IgnoresResultsOutsideBatch(t *testing.T) {
	c := New(strayClassifier{strayID: 60, failAt: 50}, Dependencies{})

	result, err := c.Categorize(context.Background(), Request{UserID: "u", Transactions: vendorNarrations(120)})
	require.NoError(t, err)

	txn := result.Transactions[60]
	assert.Equal(t, model.CategoryOther, txn.Category)
	assert.Equal(t, model.StatusStillOther, txn.Status)
	assert.Empty(t, txn.MerchantName)
	assert.Empty(t, result.Learned)
	assert.Zero(t, result.Summary.AIMatched)
}

func TestCategorize_CamelCaseKeywordRoundTrip(t *testing.T) {
	mock := NewMockClassifier(MockAnswer{
		Match: "bigbasket", Merchant: "BigBasket", Category: "Groceries", Keyword: "bigbasket", Confidence: 92,
	})
	c := New(mock, Dependencies{})
	ctx := context.Background()

	first, err := c.Categorize(ctx, Request{UserID: "u", Transactions: testutil.Narrations("UPI-BigBasket-bb@ybl")})
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"Groceries": {"bigbasket"}}, model.GroupLearned(first.Learned))

	mock.Reset()
	second, err := c.Categorize(ctx, Request{
		UserID:         "u",
		Transactions:   testutil.Narrations("UPI-BigBasket-bb@ybl", "POS BIGBASKET BLR"),
		ClientKeywords: model.GroupLearned(first.Learned),
	})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	for _, txn := range second.Transactions {
		assert.Equal(t, model.StatusLocalMatch, txn.Status, txn.Name)
		assert.Equal(t, "Groceries", txn.Category, txn.Name)
	}
}

func TestCategorize_OnlyTaxonomyCategoriesLeave(t *testing.T) {
	c := New(nil, Dependencies{})

	txns := testutil.Narrations("STARBUCKS 123", "ZOMATO ORDER", "DMART ANDHERI", "BLUE TOKAI")
	txns[1].Category = "Food & Drinks"
	txns[2].Category = "groceries"

	result, err := c.Categorize(context.Background(), Request{
		UserID:         "u",
		Transactions:   txns,
		ClientKeywords: map[string][]string{"coffee": {"starbucks"}, "restaurants & dining": {"tokai"}},
	})
	require.NoError(t, err)

	got := make([]string, len(result.Transactions))
	for i, txn := range result.Transactions {
		got[i] = txn.Category
		assert.True(t, model.IsKnownCategory(txn.Category), txn.Name)
	}
	assert.Equal(t, []string{"Other", "Other", "Groceries", "Restaurants & Dining"}, got)
	assert.Equal(t, model.StatusPreset, result.Transactions[2].Status)
	assert.Equal(t, model.StatusLocalMatch, result.Transactions[3].Status)
}

func TestCategorize_UserAssignedKept(t *testing.T) {
	mock := NewMockClassifier(swiggyAnswer())
	c := New(mock, Dependencies{})

	txns := testutil.Narrations("UPI-SWIGGY-swiggy@icici")
	txns[0].Category = "Groceries"
	txns[0].Status = model.StatusUserAssigned

	result, err := c.Categorize(context.Background(), Request{UserID: "u", Transactions: txns})
	require.NoError(t, err)

	assert.Zero(t, mock.CallCount())
	assert.Equal(t, "Groceries", result.Transactions[0].Category)
	assert.Equal(t, model.StatusUserAssigned, result.Transactions[0].Status)
}
