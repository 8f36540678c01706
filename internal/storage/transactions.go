package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaveTransactions persists categorized transactions for a user. Rows whose
// hash the user already has are skipped.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, userID, uploadID string, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	if len(transactions) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveTransactionsTx(ctx, tx, userID, uploadID, transactions)
	})
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, userID, uploadID string, transactions []model.Transaction) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, user_id, upload_id, hash, date, raw_date, narration,
			merchant_name, category, amount, direction, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		var date sql.NullTime
		if !txn.Date.IsZero() {
			date = sql.NullTime{Time: txn.Date, Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			txn.ID,
			userID,
			uploadID,
			txn.Hash,
			date,
			txn.RawDate,
			txn.Name,
			txn.MerchantName,
			txn.Category,
			txn.Amount.String(),
			string(txn.Direction),
			string(txn.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return nil
}

// GetTransactionsByUpload returns the transactions saved for an upload in insertion order.
func (s *SQLiteStorage) GetTransactionsByUpload(ctx context.Context, uploadID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(uploadID, "uploadID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, date, raw_date, narration, merchant_name, category, amount, direction, status
		FROM transactions
		WHERE upload_id = ?
		ORDER BY rowid
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var date sql.NullTime
		var amount, direction, status string

		if err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&date,
			&txn.RawDate,
			&txn.Name,
			&txn.MerchantName,
			&txn.Category,
			&amount,
			&direction,
			&status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		txn.Amount = parsed
		if date.Valid {
			txn.Date = date.Time
		}
		txn.Direction = model.Direction(direction)
		txn.Status = model.ClassificationStatus(status)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
