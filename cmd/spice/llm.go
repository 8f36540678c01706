package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/llm"
)

// createClassifier creates the batch classifier from configuration.
// This function is shared by every command that classifies narrations.
func createClassifier(logger *slog.Logger) (*llm.Classifier, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))

	cfg := llm.Config{
		Provider:        provider,
		Model:           viper.GetString("llm.model"),
		BaseURL:         viper.GetString("llm.base_url"),
		Temperature:     viper.GetFloat64("llm.temperature"),
		MaxTokens:       viper.GetInt("llm.max_tokens"),
		MaxRetries:      viper.GetInt("llm.max_retries"),
		RetryDelay:      viper.GetDuration("llm.retry_delay"),
		CacheTTL:        viper.GetDuration("llm.cache_ttl"),
		Timeout:         viper.GetDuration("llm.timeout"),
		RateLimit:       viper.GetInt("llm.rate_limit"),
		DisableJSONMode: viper.GetBool("llm.disable_json_mode"),
		Pricing: llm.Pricing{
			InputPerMillion:  viper.GetFloat64("llm.pricing.input_per_million"),
			OutputPerMillion: viper.GetFloat64("llm.pricing.output_per_million"),
		},
	}

	// Check viper first, then the provider's conventional environment variable
	switch provider {
	case "openai", "":
		cfg.APIKey = firstNonEmpty(viper.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if cfg.APIKey == "" {
			return nil, common.NewUserError(
				"OpenAI API key not found: set llm.openai_api_key or OPENAI_API_KEY, or pass --no-ai",
				common.ErrMissingConfig)
		}
	case "anthropic":
		cfg.APIKey = firstNonEmpty(viper.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.APIKey == "" {
			return nil, common.NewUserError(
				"Anthropic API key not found: set llm.anthropic_api_key or ANTHROPIC_API_KEY, or pass --no-ai",
				common.ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, provider)
	}

	classifier, err := llm.NewClassifier(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM classifier: %w", err)
	}
	return classifier, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
