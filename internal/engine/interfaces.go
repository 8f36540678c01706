package engine

import (
	"context"
	"io"

	"github.com/Veraticus/spice-statements/internal/model"
)

// BatchClassifier defines the contract for categorizing a batch of narrations.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, req model.BatchRequest) (model.BatchResponse, error)
}

// StatementParser turns an uploaded statement into transactions.
type StatementParser interface {
	Parse(ctx context.Context, fileName string, r io.Reader) ([]model.Transaction, error)
}
