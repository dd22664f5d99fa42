package domain

import "time"

// CategoryRule is a user-defined categorization rule. Rules are CEL
// expressions over the imported row (payee, description, amount, account)
// that resolve to a category with a fixed score when they fire. Explicit
// rules pre-empt heuristic matching.
type CategoryRule struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Expression is a CEL expression returning bool, e.g.
	// `payee.contains("netflix") && amount < 30.0`
	Expression string `json:"expression"`

	// CategoryID is assigned when the expression evaluates to true.
	CategoryID string `json:"categoryId"`

	// Score is the match score assigned on a hit (default 1.0).
	Score float64 `json:"score"`

	// Priority orders rules; higher wins when several fire.
	Priority int `json:"priority"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// RuleHit is the outcome of a rule firing against a row.
type RuleHit struct {
	RuleID     string  `json:"ruleId"`
	RuleName   string  `json:"ruleName"`
	CategoryID string  `json:"categoryId"`
	Score      float64 `json:"score"`
	Priority   int     `json:"priority"`
	ProcessMs  int64   `json:"processMs"`
}
