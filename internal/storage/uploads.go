package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/google/uuid"
)

// CreateUpload records a new upload in the processing state. An ID is
// generated when the upload has none.
func (s *SQLiteStorage) CreateUpload(ctx context.Context, upload *model.Upload) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if upload == nil {
		return fmt.Errorf("%w: upload", ErrNilParameter)
	}
	if err := validateString(upload.UserID, "userID"); err != nil {
		return err
	}

	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}
	upload.Status = model.UploadProcessing

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, user_id, file_name, status, total_items, processed_items, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, upload.ID, upload.UserID, upload.FileName, string(upload.Status), upload.TotalItems, upload.ProcessedItems, upload.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// IncrementProcessed adds n to the upload's processed item count.
func (s *SQLiteStorage) IncrementProcessed(ctx context.Context, uploadID string, n int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateUpload(ctx, uploadID,
		`UPDATE uploads SET processed_items = processed_items + ? WHERE id = ?`, n, uploadID)
}

// CompleteUpload marks the upload as finished.
func (s *SQLiteStorage) CompleteUpload(ctx context.Context, uploadID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateUpload(ctx, uploadID,
		`UPDATE uploads SET status = ?, completed_at = ? WHERE id = ?`,
		string(model.UploadCompleted), time.Now(), uploadID)
}

// FailUpload marks the upload as failed with a reason.
func (s *SQLiteStorage) FailUpload(ctx context.Context, uploadID string, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateUpload(ctx, uploadID,
		`UPDATE uploads SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.UploadFailed), reason, time.Now(), uploadID)
}

func (s *SQLiteStorage) updateUpload(ctx context.Context, uploadID string, query string, args ...any) error {
	if err := validateString(uploadID, "uploadID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("upload %s: %w", uploadID, common.ErrNotFound)
	}
	return nil
}

// GetUpload retrieves an upload by ID.
func (s *SQLiteStorage) GetUpload(ctx context.Context, uploadID string) (*model.Upload, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(uploadID, "uploadID"); err != nil {
		return nil, err
	}

	var upload model.Upload
	var status string
	var completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, file_name, status, error, total_items, processed_items, created_at, completed_at
		FROM uploads
		WHERE id = ?
	`, uploadID).Scan(
		&upload.ID,
		&upload.UserID,
		&upload.FileName,
		&status,
		&upload.Error,
		&upload.TotalItems,
		&upload.ProcessedItems,
		&upload.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %s: %w", uploadID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	upload.Status = model.UploadStatus(status)
	if completedAt.Valid {
		upload.CompletedAt = &completedAt.Time
	}
	return &upload, nil
}
