// Package engine implements the categorization pipeline for statement transactions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/service"
)

const (
	// DefaultBatchSize is the number of unique narrations sent per classifier call.
	DefaultBatchSize = 50
	// DefaultLearnConfidenceThreshold is the confidence a result must exceed to be learned.
	DefaultLearnConfidenceThreshold = 80.0

	usageFeature = "categorize"
)

// Config holds configuration options for the categorizer.
type Config struct {
	Categories               []string
	BatchSize                int
	LearnConfidenceThreshold float64
	MaxConcurrentBatches     int // 0 dispatches every batch at once
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Categories:               model.Taxonomy(),
		BatchSize:                DefaultBatchSize,
		LearnConfidenceThreshold: DefaultLearnConfidenceThreshold,
	}
}

// Dependencies are the optional collaborators of a Categorizer. Nil fields are skipped.
type Dependencies struct {
	Rules    service.RuleStore
	Progress service.ProgressTracker
	Usage    service.UsageRecorder
	Logger   *slog.Logger
}

// Categorizer orchestrates local matching and batch classification of transactions.
type Categorizer struct {
	classifier BatchClassifier
	rules      service.RuleStore
	progress   service.ProgressTracker
	usage      service.UsageRecorder
	logger     *slog.Logger
	config     Config
}

// Request is one categorization run.
type Request struct {
	ClientKeywords map[string][]string
	UserID         string
	UploadID       string
	Transactions   []model.Transaction
}

// Result is the outcome of a categorization run.
type Result struct {
	Transactions []model.Transaction
	Learned      []model.LearnedKeyword
	Summary      service.CategorizationSummary
}

// New creates a categorizer with the default configuration.
// A nil classifier disables external classification.
func New(classifier BatchClassifier, deps Dependencies) *Categorizer {
	return NewWithConfig(classifier, deps, DefaultConfig())
}

// NewWithConfig creates a categorizer with custom configuration.
func NewWithConfig(classifier BatchClassifier, deps Dependencies, config Config) *Categorizer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.LearnConfidenceThreshold <= 0 {
		config.LearnConfidenceThreshold = DefaultLearnConfidenceThreshold
	}
	if len(config.Categories) == 0 {
		config.Categories = model.Taxonomy()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		classifier: classifier,
		rules:      deps.Rules,
		progress:   deps.Progress,
		usage:      deps.Usage,
		logger:     logger,
		config:     config,
	}
}

// Categorize assigns a category to every transaction in the request.
// Only a context that is already done fails the run; batch and persistence
// failures are logged and leave the affected transactions as Other.
func (c *Categorizer) Categorize(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("categorization canceled: %w", err)
	}

	start := time.Now()
	txns := make([]model.Transaction, len(req.Transactions))
	copy(txns, req.Transactions)
	for i := range txns {
		if txns[i].Status != model.StatusUserAssigned {
			txns[i].Status = model.StatusUnseen
		}
	}

	c.logger.Info("Starting categorization",
		"user_id", req.UserID,
		"upload_id", req.UploadID,
		"transactions", len(txns))

	bank := c.loadMemoryBank(ctx, req.UserID, req.ClientKeywords)
	local := c.applyMemoryBank(bank, txns)
	c.reportProgress(ctx, req.UploadID, countResolved(txns))

	stats := c.classifyRemaining(ctx, req, txns, bank)

	if len(stats.learned) > 0 {
		c.persistLearned(ctx, req.UserID, stats.learned)
	}

	summary := summarize(txns)
	summary.LocalMatches = local
	summary.UniqueNarrations = stats.unique
	summary.Batches = stats.batches
	summary.FailedBatches = stats.failed
	summary.NewKeywords = len(stats.learned)
	summary.Duration = time.Since(start)

	c.logger.Info("Categorization complete",
		"user_id", req.UserID,
		"total", summary.TotalTransactions,
		"local_matches", summary.LocalMatches,
		"ai_matched", summary.AIMatched,
		"still_other", summary.StillOther,
		"failed_batches", summary.FailedBatches,
		"new_keywords", summary.NewKeywords,
		"duration", summary.Duration)

	return &Result{
		Transactions: txns,
		Learned:      stats.learned,
		Summary:      summary,
	}, nil
}

func (c *Categorizer) persistLearned(ctx context.Context, userID string, learned []model.LearnedKeyword) {
	if c.rules == nil || userID == "" {
		return
	}
	if err := c.rules.UpsertKeywordRules(ctx, userID, learned); err != nil {
		c.logger.Warn("Failed to persist learned keywords",
			"user_id", userID,
			"count", len(learned),
			"error", err)
		return
	}
	c.logger.Debug("Persisted learned keywords", "user_id", userID, "count", len(learned))
}

func summarize(txns []model.Transaction) service.CategorizationSummary {
	summary := service.CategorizationSummary{
		ByCategory:        make(map[string]int),
		TotalTransactions: len(txns),
	}
	for _, txn := range txns {
		summary.ByCategory[txn.Category]++
		switch txn.Status {
		case model.StatusPreset:
			summary.Preset++
		case model.StatusAIMatched:
			summary.AIMatched++
		case model.StatusStillOther:
			summary.StillOther++
		}
	}
	return summary
}

func countResolved(txns []model.Transaction) int {
	n := 0
	for _, txn := range txns {
		if txn.Status != model.StatusNeedsAI {
			n++
		}
	}
	return n
}
