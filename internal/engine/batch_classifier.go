package engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-statements/internal/model"
)

// narrationGroup is one unique raw narration and the transactions carrying it.
type narrationGroup struct {
	narration string
	indices   []int
}

// batchOutcome holds one batch's results; start and end bound the group IDs it owns.
type batchOutcome struct {
	results []model.BatchResult
	start   int
	end     int
	failed  bool
}

type classifyStats struct {
	learned []model.LearnedKeyword
	unique  int
	batches int
	failed  int
}

// classifyRemaining sends every transaction still marked NEEDS_AI to the
// external classifier, one request per batch of unique narrations.
func (c *Categorizer) classifyRemaining(ctx context.Context, req Request, txns []model.Transaction, bank *model.MemoryBank) classifyStats {
	groups := groupByNarration(txns)
	stats := classifyStats{unique: len(groups)}

	if len(groups) > 0 && c.classifier != nil {
		batches := chunkGroups(groups, c.config.BatchSize)
		stats.batches = len(batches)

		outcomes := c.dispatchBatches(ctx, req, groups, batches)
		stats.learned, stats.failed = c.mergeOutcomes(txns, groups, outcomes, bank)
	} else if len(groups) > 0 {
		c.logger.Info("No classifier configured, leaving unmatched transactions as Other",
			"unique_narrations", len(groups))
	}

	for i := range txns {
		if txns[i].Status == model.StatusNeedsAI {
			txns[i].Category = model.CategoryOther
			txns[i].Status = model.StatusStillOther
		}
	}

	return stats
}

// dispatchBatches classifies all batches concurrently. Each goroutine writes only
// its own slot; a failed batch is logged and never cancels its siblings.
func (c *Categorizer) dispatchBatches(ctx context.Context, req Request, groups []narrationGroup, batches [][2]int) []batchOutcome {
	outcomes := make([]batchOutcome, len(batches))
	for b, bounds := range batches {
		outcomes[b].start, outcomes[b].end = bounds[0], bounds[1]
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.config.MaxConcurrentBatches > 0 {
		g.SetLimit(c.config.MaxConcurrentBatches)
	}

	for b := range batches {
		b := b
		g.Go(func() error {
			start, end := batches[b][0], batches[b][1]
			items := make([]model.BatchItem, 0, end-start)
			for i := start; i < end; i++ {
				items = append(items, model.BatchItem{ID: i, Narration: groups[i].narration})
			}

			if gctx.Err() != nil {
				c.logger.Warn("Skipping batch, context done",
					"batch", b+1,
					"items", len(items),
					"error", gctx.Err())
				outcomes[b].failed = true
				return nil
			}

			resp, err := c.classifier.ClassifyBatch(gctx, model.BatchRequest{
				UserID:     req.UserID,
				Items:      items,
				Categories: c.config.Categories,
			})
			c.reportProgress(gctx, req.UploadID, countTransactions(groups[start:end]))
			if err != nil {
				c.logger.Warn("Batch classification failed",
					"batch", b+1,
					"of", len(batches),
					"items", len(items),
					"error", err)
				outcomes[b].failed = true
				return nil
			}

			c.recordUsage(gctx, req.UserID, resp.Usage)
			outcomes[b].results = resp.Results
			c.logger.Debug("Batch classified",
				"batch", b+1,
				"items", len(items),
				"results", len(resp.Results))
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// mergeOutcomes copies batch results onto every transaction sharing the narration
// and collects keywords that clear the learning gate.
func (c *Categorizer) mergeOutcomes(txns []model.Transaction, groups []narrationGroup, outcomes []batchOutcome, bank *model.MemoryBank) ([]model.LearnedKeyword, int) {
	var learned []model.LearnedKeyword
	seen := make(map[string]bool)
	failed := 0

	for _, outcome := range outcomes {
		if outcome.failed {
			failed++
			continue
		}
		for _, r := range outcome.results {
			if r.ID < outcome.start || r.ID >= outcome.end {
				continue
			}
			category := model.CanonicalCategory(r.Category)
			status := model.StatusAIMatched
			if category == model.CategoryOther {
				status = model.StatusStillOther
			}
			merchant := strings.TrimSpace(r.Merchant)
			for _, idx := range groups[r.ID].indices {
				txns[idx].Category = category
				txns[idx].Status = status
				if merchant != "" {
					txns[idx].MerchantName = merchant
				}
			}

			keyword := model.NormalizeKeyword(r.Keyword)
			if !c.shouldLearn(r.Confidence, category, keyword) || seen[keyword] || bank.HasKeyword(keyword) {
				continue
			}
			seen[keyword] = true
			learned = append(learned, model.LearnedKeyword{Category: category, Keyword: keyword})
		}
	}

	return learned, failed
}

func (c *Categorizer) shouldLearn(confidence float64, category, keyword string) bool {
	return confidence > c.config.LearnConfidenceThreshold &&
		category != model.CategoryOther &&
		keyword != ""
}

func (c *Categorizer) reportProgress(ctx context.Context, uploadID string, n int) {
	if c.progress == nil || uploadID == "" || n == 0 {
		return
	}
	if err := c.progress.IncrementProcessed(ctx, uploadID, n); err != nil {
		c.logger.Warn("Failed to report progress", "upload_id", uploadID, "error", err)
	}
}

func (c *Categorizer) recordUsage(ctx context.Context, userID string, usage model.TokenUsage) {
	if c.usage == nil || usage.TotalTokens == 0 {
		return
	}
	err := c.usage.RecordUsage(ctx, model.UsageEvent{
		UserID:     userID,
		Feature:    usageFeature,
		TokenUsage: usage,
	})
	if err != nil {
		c.logger.Warn("Failed to record usage", "user_id", userID, "error", err)
	}
}

// groupByNarration deduplicates NEEDS_AI transactions by raw narration, in first-seen order.
func groupByNarration(txns []model.Transaction) []narrationGroup {
	var groups []narrationGroup
	index := make(map[string]int)
	for i, txn := range txns {
		if txn.Status != model.StatusNeedsAI {
			continue
		}
		g, ok := index[txn.Name]
		if !ok {
			groups = append(groups, narrationGroup{narration: txn.Name})
			g = len(groups) - 1
			index[txn.Name] = g
		}
		groups[g].indices = append(groups[g].indices, i)
	}
	return groups
}

// chunkGroups returns [start, end) bounds of consecutive batches.
func chunkGroups(groups []narrationGroup, size int) [][2]int {
	var batches [][2]int
	for start := 0; start < len(groups); start += size {
		batches = append(batches, [2]int{start, min(start+size, len(groups))})
	}
	return batches
}

func countTransactions(groups []narrationGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.indices)
	}
	return n
}
