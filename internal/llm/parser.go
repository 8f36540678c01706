package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

// batchEnvelope accepts either array key models tend to use.
type batchEnvelope struct {
	Categorizations *[]rawResult `json:"categorizations"`
	Categories      *[]rawResult `json:"categories"`
}

type rawResult struct {
	ID         json.Number `json:"id"`
	Merchant   string      `json:"merchant"`
	Category   string      `json:"category"`
	Keyword    string      `json:"keyword"`
	Reasoning  string      `json:"reasoning"`
	Confidence json.Number `json:"confidence"`
}

// parseBatchResponse decodes a batch classification reply.
// Any shape problem is reported as common.ErrMalformedResponse.
func parseBatchResponse(content string) ([]model.BatchResult, error) {
	content = cleanMarkdownWrapper(content)

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	var env batchEnvelope
	if err := decoder.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}

	raw := env.Categorizations
	if raw == nil {
		raw = env.Categories
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: no categorizations array", common.ErrMalformedResponse)
	}

	results := make([]model.BatchResult, 0, len(*raw))
	for _, r := range *raw {
		id, err := r.ID.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", common.ErrMalformedResponse, r.ID)
		}

		confidence := 0.0
		if r.Confidence != "" {
			confidence, err = r.Confidence.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: invalid confidence %q", common.ErrMalformedResponse, r.Confidence)
			}
		}
		// Some models answer on a 0-1 scale despite the instructions.
		if confidence > 0 && confidence < 1 {
			confidence *= 100
		}

		results = append(results, model.BatchResult{
			ID:         int(id),
			Merchant:   strings.TrimSpace(r.Merchant),
			Category:   strings.TrimSpace(r.Category),
			Keyword:    strings.TrimSpace(r.Keyword),
			Reasoning:  r.Reasoning,
			Confidence: confidence,
		})
	}

	return results, nil
}

// cleanMarkdownWrapper strips ```json fences and any prose around the outermost object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	return content
}
