package model

import "time"

// RuleSource indicates how a keyword rule was created.
type RuleSource string

const (
	// SourceAuto indicates the rule was learned from a classifier result.
	SourceAuto RuleSource = "AUTO"
	// SourceManual indicates the rule was added by a person.
	SourceManual RuleSource = "MANUAL"
)

// KeywordRule is the persisted form of a memory-bank keyword.
type KeywordRule struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    string     `json:"user_id"`
	Keyword   string     `json:"keyword"`
	Category  string     `json:"category"`
	Source    RuleSource `json:"source"`
}
