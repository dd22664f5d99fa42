package domain

import "time"

// ImportRow is a freshly imported bank transaction row awaiting matching.
type ImportRow struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	ImportID    string    `json:"importId"`
	AccountID   string    `json:"accountId"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	RawPayee    string    `json:"rawPayee"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Disposition is the reconciliation workflow's decision for a row.
type Disposition string

const (
	DispositionAutoFilled  Disposition = "auto-filled"
	DispositionNeedsReview Disposition = "needs-review"
	DispositionUnmatched   Disposition = "unmatched"
)

// Suggestion is the persisted match outcome for a single imported row:
// the cleaned payee name plus category, payee, and schedule matches with
// their confidence bands, and the workflow disposition derived from them.
type Suggestion struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspaceId"`
	ImportID    string      `json:"importId"`
	RowID       string      `json:"rowId"`
	Disposition Disposition `json:"disposition"`

	PayeeName    string `json:"payeeName"`
	PayeeDetails string `json:"payeeDetails,omitempty"`

	Category CategoryMatch `json:"category"`
	Payee    PayeeMatch    `json:"payee"`
	Schedule ScheduleMatch `json:"schedule"`

	// RuleID is set when an explicit categorization rule pre-empted
	// heuristic matching.
	RuleID string `json:"ruleId,omitempty"`

	Reasons  []string           `json:"reasons,omitempty"`
	Metadata SuggestionMetadata `json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
}

// SuggestionMetadata carries processing information for audit and debugging.
type SuggestionMetadata struct {
	TraceID       string `json:"traceId,omitempty"`
	MatchMs       int64  `json:"matchMs"`
	TotalMs       int64  `json:"totalMs"`
	EngineVersion string `json:"engineVersion"`
}

// ImportStats tallies rows of a bulk import by disposition.
type ImportStats struct {
	ImportID    string `json:"importId"`
	Rows        int    `json:"rows"`
	AutoFilled  int    `json:"autoFilled"`
	NeedsReview int    `json:"needsReview"`
	Unmatched   int    `json:"unmatched"`
}

// Add folds one suggestion into the tally.
func (s *ImportStats) Add(sg *Suggestion) {
	s.Rows++
	switch sg.Disposition {
	case DispositionAutoFilled:
		s.AutoFilled++
	case DispositionNeedsReview:
		s.NeedsReview++
	default:
		s.Unmatched++
	}
}
