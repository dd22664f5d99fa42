// Package autofill derives the reconciliation disposition for a matched
// row. It folds the category, payee, and schedule match results into a
// persisted suggestion and decides whether the row can be filled in
// without user review.
package autofill

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// EngineVersion is stamped into every suggestion's metadata.
const EngineVersion = "kestrel-1.0"

// Processor turns match results into a suggestion with a disposition.
type Processor struct {
	// AutoFillConfidence is the minimum confidence band at which a match
	// is applied without review.
	AutoFillConfidence domain.Confidence
}

// NewProcessor creates a processor with the default auto-fill bar.
func NewProcessor() *Processor {
	return &Processor{AutoFillConfidence: domain.ConfidenceHigh}
}

// DecisionInput carries everything the disposition depends on.
type DecisionInput struct {
	WorkspaceID string
	ImportID    string
	RowID       string
	TraceID     string

	PayeeName    string
	PayeeDetails string

	Category domain.CategoryMatch
	Payee    domain.PayeeMatch
	Schedule domain.ScheduleMatch

	// RuleHit is set when an explicit categorization rule fired; it
	// pre-empts the heuristic category match.
	RuleHit *domain.RuleHit

	MatchMs   int64
	StartTime time.Time
}

// Process builds the suggestion for a matched row.
//
// Disposition: a schedule or payee match at or above the auto-fill bar, or
// a rule hit, auto-fills the row. Any weaker signal routes it to review.
// No signal at all leaves it unmatched.
func (p *Processor) Process(ctx context.Context, input *DecisionInput) *domain.Suggestion {
	sg := &domain.Suggestion{
		ID:           uuid.New().String(),
		WorkspaceID:  input.WorkspaceID,
		ImportID:     input.ImportID,
		RowID:        input.RowID,
		PayeeName:    input.PayeeName,
		PayeeDetails: input.PayeeDetails,
		Category:     input.Category,
		Payee:        input.Payee,
		Schedule:     input.Schedule,
		CreatedAt:    time.Now().UTC(),
	}

	if input.RuleHit != nil {
		sg.RuleID = input.RuleHit.RuleID
		sg.Reasons = append(sg.Reasons, "categorization rule "+input.RuleHit.RuleName+" fired")
	}
	sg.Reasons = append(sg.Reasons, input.Schedule.Reasons...)

	sg.Disposition = p.disposition(input)

	sg.Metadata = domain.SuggestionMetadata{
		TraceID:       input.TraceID,
		MatchMs:       input.MatchMs,
		TotalMs:       time.Since(input.StartTime).Milliseconds(),
		EngineVersion: EngineVersion,
	}

	return sg
}

func (p *Processor) disposition(input *DecisionInput) domain.Disposition {
	bar := p.AutoFillConfidence
	if bar == "" {
		bar = domain.ConfidenceHigh
	}

	if input.Schedule.Confidence.AtLeast(bar) ||
		input.Payee.Confidence.AtLeast(bar) ||
		input.RuleHit != nil {
		return domain.DispositionAutoFilled
	}

	if input.Schedule.Confidence.Rank() > 0 ||
		input.Payee.Confidence.Rank() > 0 ||
		input.Category.Confidence.Rank() > 0 {
		return domain.DispositionNeedsReview
	}

	return domain.DispositionUnmatched
}

// ShouldReview reports whether a suggestion needs user attention.
func ShouldReview(sg *domain.Suggestion) bool {
	return sg.Disposition == domain.DispositionNeedsReview
}

// Tally folds suggestions into per-import statistics.
func Tally(importID string, suggestions []*domain.Suggestion) domain.ImportStats {
	stats := domain.ImportStats{ImportID: importID}
	for _, sg := range suggestions {
		stats.Add(sg)
	}
	return stats
}
