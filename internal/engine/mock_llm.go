package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/Veraticus/spice-statements/internal/model"
)

// MockClassifier is a test implementation of the BatchClassifier interface.
// It answers from a narration substring table and records every request.
type MockClassifier struct {
	// FailWhen, when set, fails any batch for which it returns an error.
	FailWhen func(req model.BatchRequest) error
	answers  []MockAnswer
	calls    []model.BatchRequest
	mu       sync.Mutex
}

// MockAnswer maps narrations containing Match (case-insensitive) to a result.
type MockAnswer struct {
	Match      string
	Merchant   string
	Category   string
	Keyword    string
	Confidence float64
}

// NewMockClassifier creates a mock classifier with the given answers.
// Narrations matching no answer come back as Other with zero confidence.
func NewMockClassifier(answers ...MockAnswer) *MockClassifier {
	return &MockClassifier{answers: answers}
}

// ClassifyBatch implements BatchClassifier.
func (m *MockClassifier) ClassifyBatch(_ context.Context, req model.BatchRequest) (model.BatchResponse, error) {
	m.mu.Lock()
	items := append([]model.BatchItem(nil), req.Items...)
	m.calls = append(m.calls, model.BatchRequest{UserID: req.UserID, Items: items, Categories: req.Categories})
	failWhen := m.FailWhen
	m.mu.Unlock()

	if failWhen != nil {
		if err := failWhen(req); err != nil {
			return model.BatchResponse{}, err
		}
	}

	resp := model.BatchResponse{
		Usage: model.TokenUsage{
			Model:            "mock",
			PromptTokens:     10 * len(req.Items),
			CompletionTokens: 5 * len(req.Items),
			TotalTokens:      15 * len(req.Items),
		},
	}
	for _, item := range req.Items {
		resp.Results = append(resp.Results, m.answer(item))
	}
	return resp, nil
}

func (m *MockClassifier) answer(item model.BatchItem) model.BatchResult {
	lower := strings.ToLower(item.Narration)
	for _, a := range m.answers {
		if strings.Contains(lower, strings.ToLower(a.Match)) {
			return model.BatchResult{
				ID:         item.ID,
				Merchant:   a.Merchant,
				Category:   a.Category,
				Keyword:    a.Keyword,
				Confidence: a.Confidence,
				Reasoning:  "mock match on " + a.Match,
			}
		}
	}
	return model.BatchResult{ID: item.ID, Category: model.CategoryOther}
}

// Calls returns a copy of every request received.
func (m *MockClassifier) Calls() []model.BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.BatchRequest(nil), m.calls...)
}

// CallCount returns the number of requests received.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded requests.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
