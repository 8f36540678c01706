// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-statements/internal/model"
)

// RuleStore persists per-user keyword rules that make up the memory bank.
type RuleStore interface {
	GetMemoryBank(ctx context.Context, userID string) (*model.MemoryBank, error)
	UpsertKeywordRules(ctx context.Context, userID string, learned []model.LearnedKeyword) error
}

// ProgressTracker receives progress notifications for an upload.
type ProgressTracker interface {
	IncrementProcessed(ctx context.Context, uploadID string, n int) error
}

// UsageRecorder records the cost of external classifier calls.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, event model.UsageEvent) error
}

// UploadStore tracks statement uploads.
type UploadStore interface {
	ProgressTracker
	CreateUpload(ctx context.Context, upload *model.Upload) error
	CompleteUpload(ctx context.Context, uploadID string) error
	FailUpload(ctx context.Context, uploadID string, reason string) error
	GetUpload(ctx context.Context, uploadID string) (*model.Upload, error)
}

// TransactionStore persists categorized transactions.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, userID, uploadID string, transactions []model.Transaction) error
	GetTransactionsByUpload(ctx context.Context, uploadID string) ([]model.Transaction, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	RuleStore
	UploadStore
	UsageRecorder
	TransactionStore

	GetKeywordRules(ctx context.Context, userID string) ([]model.KeywordRule, error)
	AddKeywordRule(ctx context.Context, rule *model.KeywordRule) error
	DeleteKeywordRule(ctx context.Context, userID, keyword string) error
	GetUsageSummary(ctx context.Context, userID string) (*model.UsageSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}

// CategorizationSummary shows the results of a categorization run.
type CategorizationSummary struct {
	ByCategory        map[string]int `json:"by_category"`
	TotalTransactions int            `json:"total_transactions"`
	Preset            int            `json:"preset"`
	LocalMatches      int            `json:"local_matches"`
	UniqueNarrations  int            `json:"unique_narrations"`
	Batches           int            `json:"batches"`
	FailedBatches     int            `json:"failed_batches"`
	AIMatched         int            `json:"ai_matched"`
	StillOther        int            `json:"still_other"`
	NewKeywords       int            `json:"new_keywords"`
	Duration          time.Duration  `json:"duration"`
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
