package model

import "time"

// UploadStatus tracks the lifecycle of a statement upload.
type UploadStatus string

// Upload status constants.
const (
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// Upload records a statement upload and its categorization progress.
type Upload struct {
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	FileName       string       `json:"file_name"`
	Status         UploadStatus `json:"status"`
	Error          string       `json:"error,omitempty"`
	TotalItems     int          `json:"total_items"`
	ProcessedItems int          `json:"processed_items"`
}

// UsageEvent records the cost of one external classifier call.
type UsageEvent struct {
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	Feature   string    `json:"feature"`
	TokenUsage
}

// UsageSummary aggregates usage events for a user.
type UsageSummary struct {
	UserID           string  `json:"user_id"`
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

// SchemaMapping records which columns of a tabular statement hold which field.
// A value of -1 means the column is absent.
type SchemaMapping struct {
	DateField        int `json:"date_field"`
	DescriptionField int `json:"description_field"`
	AmountField      int `json:"amount_field"`
	WithdrawalField  int `json:"withdrawal_field"`
	DepositField     int `json:"deposit_field"`
	CategoryField    int `json:"category_field"`
	TypeField        int `json:"type_field"`
}

// EmptySchemaMapping returns a mapping with every field absent.
func EmptySchemaMapping() SchemaMapping {
	return SchemaMapping{-1, -1, -1, -1, -1, -1, -1}
}
