package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

// GetMemoryBank loads every keyword rule for the user as a memory bank.
func (s *SQLiteStorage) GetMemoryBank(ctx context.Context, userID string) (*model.MemoryBank, error) {
	rules, err := s.GetKeywordRules(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, r := range rules {
		grouped[r.Category] = append(grouped[r.Category], r.Keyword)
	}
	return model.MemoryBankFromMap(grouped), nil
}

// GetKeywordRules returns the user's rules in creation order.
func (s *SQLiteStorage) GetKeywordRules(ctx context.Context, userID string) ([]model.KeywordRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return s.getKeywordRulesTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) getKeywordRulesTx(ctx context.Context, q queryable, userID string) ([]model.KeywordRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, keyword, category, source, created_at, updated_at
		FROM keyword_rules
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.KeywordRule
	for rows.Next() {
		var r model.KeywordRule
		var source string
		if err := rows.Scan(&r.UserID, &r.Keyword, &r.Category, &source, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword rule: %w", err)
		}
		r.Source = model.RuleSource(source)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keyword rules: %w", err)
	}
	return rules, nil
}

// UpsertKeywordRules stores learned keywords for the user. Keywords are unique
// per user; learning a keyword the user already has is a no-op.
func (s *SQLiteStorage) UpsertKeywordRules(ctx context.Context, userID string, learned []model.LearnedKeyword) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if len(learned) == 0 {
		return nil
	}

	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO keyword_rules (user_id, keyword, category, source, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, keyword) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, l := range learned {
			rule := model.KeywordRule{UserID: userID, Keyword: l.Keyword, Category: l.Category}
			if err := validateRule(&rule); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				userID,
				model.NormalizeKeyword(l.Keyword),
				model.CanonicalCategory(l.Category),
				string(model.SourceAuto),
				now,
				now,
			); err != nil {
				return fmt.Errorf("failed to upsert keyword %q: %w", l.Keyword, err)
			}
		}
		return nil
	})
}

// AddKeywordRule stores a manually curated rule, replacing the category of an
// existing keyword.
func (s *SQLiteStorage) AddKeywordRule(ctx context.Context, rule *model.KeywordRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	now := time.Now()
	if rule.Source == "" {
		rule.Source = model.SourceManual
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_rules (user_id, keyword, category, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, keyword) DO UPDATE SET
			category = excluded.category,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, rule.UserID, model.NormalizeKeyword(rule.Keyword), model.CanonicalCategory(rule.Category), string(rule.Source), now, now)
	if err != nil {
		return fmt.Errorf("failed to save keyword rule: %w", err)
	}
	return nil
}

// DeleteKeywordRule removes one of the user's keywords.
func (s *SQLiteStorage) DeleteKeywordRule(ctx context.Context, userID, keyword string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM keyword_rules WHERE user_id = ? AND keyword = ?`,
		userID, model.NormalizeKeyword(keyword))
	if err != nil {
		return fmt.Errorf("failed to delete keyword rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("keyword %q: %w", keyword, common.ErrNotFound)
	}
	return nil
}
