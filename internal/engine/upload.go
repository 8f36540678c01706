package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/service"
)

// UploadRequest is one statement file submitted for categorization.
type UploadRequest struct {
	Content        io.Reader
	ClientKeywords map[string][]string
	UserID         string
	FileName       string
}

// UploadResult is returned to the client after an upload is processed.
type UploadResult struct {
	LearnedKeywords map[string][]string           `json:"learned_keywords"`
	UploadID        string                        `json:"upload_id"`
	Transactions    []model.Transaction           `json:"transactions"`
	Summary         service.CategorizationSummary `json:"summary"`
}

// Uploader runs the full upload pipeline: parse, categorize, persist.
type Uploader struct {
	parser       StatementParser
	categorizer  *Categorizer
	uploads      service.UploadStore
	transactions service.TransactionStore
	logger       *slog.Logger
}

// NewUploader creates an uploader. The stores may be nil.
func NewUploader(parser StatementParser, categorizer *Categorizer, uploads service.UploadStore, transactions service.TransactionStore, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		parser:       parser,
		categorizer:  categorizer,
		uploads:      uploads,
		transactions: transactions,
		logger:       logger,
	}
}

// Process parses and categorizes one statement. Only parse failures and a
// canceled context fail the call; bookkeeping failures are logged.
func (u *Uploader) Process(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.UserID == "" {
		return nil, common.NewUserError("user id is required", common.ErrInvalidInput)
	}

	txns, err := u.parser.Parse(ctx, req.FileName, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", req.FileName, err)
	}

	upload := &model.Upload{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		FileName:   req.FileName,
		Status:     model.UploadProcessing,
		TotalItems: len(txns),
	}
	tracked := u.createUpload(ctx, upload)

	trackedID := ""
	if tracked {
		trackedID = upload.ID
	}

	result, err := u.categorizer.Categorize(ctx, Request{
		UserID:         req.UserID,
		UploadID:       trackedID,
		Transactions:   txns,
		ClientKeywords: req.ClientKeywords,
	})
	if err != nil {
		if tracked {
			if ferr := u.uploads.FailUpload(context.WithoutCancel(ctx), upload.ID, err.Error()); ferr != nil {
				u.logger.Warn("Failed to mark upload failed", "upload_id", upload.ID, "error", ferr)
			}
		}
		return nil, err
	}

	if u.transactions != nil {
		if err := u.transactions.SaveTransactions(ctx, req.UserID, upload.ID, result.Transactions); err != nil {
			u.logger.Warn("Failed to save transactions", "upload_id", upload.ID, "error", err)
		}
	}

	if tracked {
		if err := u.uploads.CompleteUpload(ctx, upload.ID); err != nil {
			u.logger.Warn("Failed to complete upload", "upload_id", upload.ID, "error", err)
		}
	}

	return &UploadResult{
		UploadID:        upload.ID,
		Transactions:    result.Transactions,
		LearnedKeywords: model.GroupLearned(result.Learned),
		Summary:         result.Summary,
	}, nil
}

func (u *Uploader) createUpload(ctx context.Context, upload *model.Upload) bool {
	if u.uploads == nil {
		return false
	}
	if err := u.uploads.CreateUpload(ctx, upload); err != nil {
		u.logger.Warn("Failed to create upload record", "file", upload.FileName, "error", err)
		return false
	}
	return true
}
