package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spice-statements/internal/model"
)

// RecordUsage stores the token usage of one classifier call.
func (s *SQLiteStorage) RecordUsage(ctx context.Context, event model.UsageEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(event.Feature, "feature"); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (user_id, feature, model, prompt_tokens, completion_tokens, total_tokens, estimated_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, event.UserID, event.Feature, event.Model, event.PromptTokens, event.CompletionTokens, event.TotalTokens, event.EstimatedCost, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// GetUsageSummary totals the user's recorded usage.
func (s *SQLiteStorage) GetUsageSummary(ctx context.Context, userID string) (*model.UsageSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	summary := &model.UsageSummary{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)
		FROM usage_events
		WHERE user_id = ?
	`, userID).Scan(
		&summary.Calls,
		&summary.PromptTokens,
		&summary.CompletionTokens,
		&summary.TotalTokens,
		&summary.EstimatedCost,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	return summary, nil
}
