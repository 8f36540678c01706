package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-statements/internal/common"
)

// NewClient returns the provider client named by cfg.Provider. An empty
// provider selects the OpenAI-compatible client.
func NewClient(cfg Config) (Client, error) {
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", "openai", "openai-compatible":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, provider)
	}
}
