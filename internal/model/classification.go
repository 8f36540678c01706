// Package model defines the core domain models used throughout the application.
package model

// ClassificationStatus tracks where a transaction is in the categorization pipeline.
type ClassificationStatus string

// Classification status constants.
const (
	StatusUnseen       ClassificationStatus = "UNSEEN"
	StatusPreset       ClassificationStatus = "PRESET"
	StatusLocalMatch   ClassificationStatus = "LOCAL_MATCH"
	StatusNeedsAI      ClassificationStatus = "NEEDS_AI"
	StatusAIMatched    ClassificationStatus = "AI_MATCHED"
	StatusStillOther   ClassificationStatus = "STILL_OTHER"
	StatusUserAssigned ClassificationStatus = "USER_ASSIGNED"
)

// IsTerminal reports whether no further stage may change the category.
func (s ClassificationStatus) IsTerminal() bool {
	switch s {
	case StatusPreset, StatusLocalMatch, StatusAIMatched, StatusStillOther, StatusUserAssigned:
		return true
	default:
		return false
	}
}

// BatchItem is one unique narration sent to the external classifier.
type BatchItem struct {
	Narration string `json:"narration"`
	ID        int    `json:"id"`
}

// BatchResult is the classifier's answer for one BatchItem.
type BatchResult struct {
	Merchant   string  `json:"merchant"`
	Category   string  `json:"category"`
	Keyword    string  `json:"keyword"`
	Reasoning  string  `json:"reasoning,omitempty"`
	ID         int     `json:"id"`
	Confidence float64 `json:"confidence"`
}

// BatchRequest groups the items of one classifier call.
type BatchRequest struct {
	UserID     string
	Items      []BatchItem
	Categories []string
}

// BatchResponse carries the results of one classifier call.
type BatchResponse struct {
	Results []BatchResult
	Usage   TokenUsage
}

// TokenUsage reports what a single provider call consumed.
type TokenUsage struct {
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

// LearnedKeyword is a keyword-to-category association discovered during a run.
type LearnedKeyword struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// GroupLearned returns learned keywords as category -> keywords, preserving order.
func GroupLearned(learned []LearnedKeyword) map[string][]string {
	out := make(map[string][]string)
	for _, l := range learned {
		out[l.Category] = append(out[l.Category], l.Keyword)
	}
	return out
}
