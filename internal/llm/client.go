package llm

import (
	"context"

	"github.com/Veraticus/spice-statements/internal/model"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (CompletionResponse, error)
}

// CompletionResponse contains the raw model output and what it cost.
type CompletionResponse struct {
	Content string
	Usage   model.TokenUsage
}
