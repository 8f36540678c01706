package llm

import (
	"testing"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []model.BatchResult
		wantErr bool
	}{
		{
			name:    "categorizations key",
			content: `{"categorizations":[{"id":0,"merchant":"Swiggy","category":"Food Delivery","keyword":"swiggy","confidence":92,"reasoning":"delivery"}]}`,
			want: []model.BatchResult{
				{ID: 0, Merchant: "Swiggy", Category: "Food Delivery", Keyword: "swiggy", Confidence: 92, Reasoning: "delivery"},
			},
		},
		{
			name:    "categories alias with string id",
			content: `{"categories":[{"id":"7","category":"Telecom","keyword":"jio","confidence":85}]}`,
			want: []model.BatchResult{
				{ID: 7, Category: "Telecom", Keyword: "jio", Confidence: 85},
			},
		},
		{
			name:    "markdown fence and fractional confidence",
			content: "Here you go:\n```json\n{\"categorizations\":[{\"id\":1,\"category\":\"Fuel\",\"keyword\":\"hpcl\",\"confidence\":0.9}]}\n```",
			want: []model.BatchResult{
				{ID: 1, Category: "Fuel", Keyword: "hpcl", Confidence: 90},
			},
		},
		{
			name:    "empty array is valid",
			content: `{"categorizations":[]}`,
			want:    []model.BatchResult{},
		},
		{name: "not json", content: "I could not classify these.", wantErr: true},
		{name: "missing array", content: `{"results":[]}`, wantErr: true},
		{name: "bad id", content: `{"categorizations":[{"id":"abc","category":"Fuel"}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBatchResponse(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("  {\"a\":1}  "))
	assert.Equal(t, "no braces", cleanMarkdownWrapper("no braces"))
}

func TestBuildBatchPrompt(t *testing.T) {
	prompt, err := buildBatchPrompt([]model.BatchItem{
		{ID: 0, Narration: "UPI-SWIGGY-swiggy@icici"},
		{ID: 1, Narration: "NEFT-ACME CORP"},
	}, []string{"Groceries", "Other"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Groceries\n")
	assert.Contains(t, prompt, `{"narration":"UPI-SWIGGY-swiggy@icici","id":0}`)
	assert.Contains(t, prompt, "[upi_merchant]")
	assert.Contains(t, prompt, `"categorizations"`)
}
