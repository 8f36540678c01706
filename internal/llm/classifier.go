package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/service"
)

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	Pricing         Pricing
	MaxRetries      int // total attempts per batch; 1 disables retries
	RetryDelay      time.Duration
	CacheTTL        time.Duration
	Timeout         time.Duration
	RateLimit       int
	Temperature     float64
	MaxTokens       int
	DisableJSONMode bool
}

// Classifier categorizes batches of narrations with a hosted model.
// Construct it once per process and share it; it is safe for concurrent use.
type Classifier struct {
	client      Client
	cache       *resultCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewClassifier creates a new LLM-based classifier.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewClassifierWithClient(client, cfg, logger), nil
}

// NewClassifierWithClient wraps an existing client.
func NewClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = 1
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		cache:       newResultCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// ClassifyBatch sends one batch of narrations to the model and returns one
// result per answered item. Cached narrations are answered without a call.
func (c *Classifier) ClassifyBatch(ctx context.Context, req model.BatchRequest) (model.BatchResponse, error) {
	categories := req.Categories
	if len(categories) == 0 {
		categories = model.Taxonomy()
	}

	var response model.BatchResponse
	pending := make([]model.BatchItem, 0, len(req.Items))
	narrations := make(map[int]string, len(req.Items))

	for _, item := range req.Items {
		if cached, ok := c.cache.get(cacheKey(req.UserID, item.Narration)); ok {
			cached.ID = item.ID
			response.Results = append(response.Results, cached)
			continue
		}
		pending = append(pending, item)
		narrations[item.ID] = item.Narration
	}

	if len(pending) == 0 {
		c.logger.Debug("batch answered from cache", "items", len(req.Items))
		return response, nil
	}

	prompt, err := buildBatchPrompt(pending, categories)
	if err != nil {
		return model.BatchResponse{}, err
	}

	var results []model.BatchResult
	err = common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		completion, err := c.client.Complete(ctx, batchSystemPrompt, prompt)
		if err != nil {
			c.logger.Warn("batch classification attempt failed",
				"error", err,
				"items", len(pending))
			return err
		}
		response.Usage = completion.Usage

		parsed, err := parseBatchResponse(completion.Content)
		if err != nil {
			c.logger.Warn("malformed batch classification response",
				"error", err,
				"items", len(pending))
			return &common.RetryableError{Err: err, Retryable: true}
		}
		results = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return model.BatchResponse{}, classificationError(err)
	}

	seen := make(map[int]bool, len(results))
	for _, r := range results {
		narration, ok := narrations[r.ID]
		if !ok || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		c.cache.set(cacheKey(req.UserID, narration), r)
		response.Results = append(response.Results, r)
	}

	c.logger.Info("batch classified",
		"items", len(pending),
		"results", len(seen),
		"model", response.Usage.Model,
		"total_tokens", response.Usage.TotalTokens,
		"estimated_cost", fmt.Sprintf("%.4f", response.Usage.EstimatedCost))

	return response, nil
}

func classificationError(err error) error {
	if errors.Is(err, common.ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
}

// Close releases background resources.
func (c *Classifier) Close() error {
	c.cache.Close()
	return nil
}
