package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/engine"
	"github.com/Veraticus/spice-statements/internal/model"
)

// ApplySimilarRequest is the body of POST /api/transactions/apply-similar.
type ApplySimilarRequest struct {
	Category     string              `json:"category"`
	Transactions []model.Transaction `json:"transactions"`
	Index        int                 `json:"index"`
}

// ApplySimilarResponse returns the updated transactions and the remembered keyword.
type ApplySimilarResponse struct {
	LearnedKeywords map[string][]string `json:"learned_keywords"`
	Transactions    []model.Transaction `json:"transactions"`
	Updated         int                 `json:"updated"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload handles POST /api/uploads.
func (s *Server) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return newValidationError(c, "No file provided", ValidationError{Field: "file", Message: "File is required"})
	}

	var keywords map[string][]string
	if raw := c.FormValue("keywords"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
			return newValidationError(c, "Invalid keywords", ValidationError{
				Field:   "keywords",
				Message: "Must be a JSON object of category to keyword list",
			})
		}
	}

	src, err := file.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", "error", err)
		return newInternalError(c, "Failed to process file")
	}
	defer func() { _ = src.Close() }()

	result, err := s.uploader.Process(c.Request().Context(), engine.UploadRequest{
		UserID:         userID(c),
		FileName:       file.Filename,
		Content:        src,
		ClientKeywords: keywords,
	})
	if err != nil {
		var userErr *common.UserError
		switch {
		case errors.Is(err, common.ErrParseFailed):
			return newUnprocessableError(c, err.Error())
		case errors.As(err, &userErr):
			return newValidationError(c, userErr.UserMessage)
		default:
			s.logger.Error("Upload failed", "user_id", userID(c), "file", file.Filename, "error", err)
			return newInternalError(c, "Failed to process statement")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// handleGetUpload handles GET /api/uploads/:id.
func (s *Server) handleGetUpload(c echo.Context) error {
	upload, err := s.storage.GetUpload(c.Request().Context(), c.Param("id"))
	if errors.Is(err, common.ErrNotFound) || (err == nil && upload.UserID != userID(c)) {
		return newNotFoundError(c, "Upload not found")
	}
	if err != nil {
		s.logger.Error("Failed to load upload", "upload_id", c.Param("id"), "error", err)
		return newInternalError(c, "Failed to load upload")
	}
	return c.JSON(http.StatusOK, upload)
}

// handleUploadTransactions handles GET /api/uploads/:id/transactions.
func (s *Server) handleUploadTransactions(c echo.Context) error {
	txns, ok, err := s.ownedTransactions(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": txns})
}

// handleRecurring handles GET /api/uploads/:id/recurring.
func (s *Server) handleRecurring(c echo.Context) error {
	txns, ok, err := s.ownedTransactions(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"recurring": engine.DetectRecurring(txns)})
}

// ownedTransactions loads an upload's transactions if it belongs to the caller.
// When ok is false the error response has already been written.
func (s *Server) ownedTransactions(c echo.Context) ([]model.Transaction, bool, error) {
	ctx := c.Request().Context()
	upload, err := s.storage.GetUpload(ctx, c.Param("id"))
	if errors.Is(err, common.ErrNotFound) || (err == nil && upload.UserID != userID(c)) {
		return nil, false, newNotFoundError(c, "Upload not found")
	}
	if err != nil {
		s.logger.Error("Failed to load upload", "upload_id", c.Param("id"), "error", err)
		return nil, false, newInternalError(c, "Failed to load upload")
	}

	txns, err := s.storage.GetTransactionsByUpload(ctx, upload.ID)
	if err != nil {
		s.logger.Error("Failed to load transactions", "upload_id", upload.ID, "error", err)
		return nil, false, newInternalError(c, "Failed to load transactions")
	}
	return txns, true, nil
}

// handleKeywords handles GET /api/keywords.
func (s *Server) handleKeywords(c echo.Context) error {
	bank, err := s.storage.GetMemoryBank(c.Request().Context(), userID(c))
	if err != nil {
		s.logger.Error("Failed to load memory bank", "user_id", userID(c), "error", err)
		return newInternalError(c, "Failed to load keywords")
	}
	return c.JSON(http.StatusOK, map[string]any{"keywords": bank.ToMap()})
}

// handleApplySimilar handles POST /api/transactions/apply-similar.
func (s *Server) handleApplySimilar(c echo.Context) error {
	var req ApplySimilarRequest
	if err := c.Bind(&req); err != nil {
		return newValidationError(c, "Invalid request body")
	}

	updated, learned, err := engine.ApplyToSimilar(req.Transactions, req.Index, req.Category)
	if err != nil {
		var userErr *common.UserError
		switch {
		case errors.As(err, &userErr):
			return newValidationError(c, userErr.UserMessage, ValidationError{Field: "category", Message: userErr.UserMessage})
		case errors.Is(err, common.ErrNotFound):
			return newValidationError(c, "Invalid index", ValidationError{Field: "index", Message: "Out of range"})
		default:
			return newInternalError(c, "Failed to apply category")
		}
	}

	resp := ApplySimilarResponse{
		Transactions:    req.Transactions,
		Updated:         updated,
		LearnedKeywords: map[string][]string{},
	}

	if learned.Keyword != "" {
		rule := &model.KeywordRule{
			UserID:   userID(c),
			Keyword:  learned.Keyword,
			Category: learned.Category,
			Source:   model.SourceManual,
		}
		if err := s.storage.AddKeywordRule(c.Request().Context(), rule); err != nil {
			s.logger.Warn("Failed to remember keyword", "user_id", rule.UserID, "keyword", rule.Keyword, "error", err)
		}
		resp.LearnedKeywords = model.GroupLearned([]model.LearnedKeyword{learned})
	}

	return c.JSON(http.StatusOK, resp)
}
