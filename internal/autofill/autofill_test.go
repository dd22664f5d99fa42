package autofill

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func baseInput() *DecisionInput {
	return &DecisionInput{
		WorkspaceID: "ws-001",
		ImportID:    "imp-001",
		RowID:       "row-001",
		PayeeName:   "Walmart",
		StartTime:   time.Now(),
	}
}

func TestDisposition(t *testing.T) {
	p := NewProcessor()

	tests := []struct {
		name  string
		setup func(*DecisionInput)
		want  domain.Disposition
	}{
		{
			name: "exact schedule auto-fills",
			setup: func(in *DecisionInput) {
				in.Schedule = domain.ScheduleMatch{Confidence: domain.ConfidenceExact, Score: 1.0}
			},
			want: domain.DispositionAutoFilled,
		},
		{
			name: "high payee auto-fills",
			setup: func(in *DecisionInput) {
				in.Payee = domain.PayeeMatch{Confidence: domain.ConfidenceHigh, Score: 0.9}
			},
			want: domain.DispositionAutoFilled,
		},
		{
			name: "rule hit auto-fills regardless of matches",
			setup: func(in *DecisionInput) {
				in.RuleHit = &domain.RuleHit{RuleID: "r1", RuleName: "streaming", CategoryID: "cat-1"}
			},
			want: domain.DispositionAutoFilled,
		},
		{
			name: "medium payee needs review",
			setup: func(in *DecisionInput) {
				in.Payee = domain.PayeeMatch{Confidence: domain.ConfidenceMedium, Score: 0.75}
			},
			want: domain.DispositionNeedsReview,
		},
		{
			name: "category alone never auto-fills",
			setup: func(in *DecisionInput) {
				in.Category = domain.CategoryMatch{Confidence: domain.ConfidenceHigh, Score: 0.93}
			},
			want: domain.DispositionNeedsReview,
		},
		{
			name:  "no signals leaves the row unmatched",
			setup: func(in *DecisionInput) {},
			want:  domain.DispositionUnmatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.setup(in)

			sg := p.Process(context.Background(), in)

			if sg.Disposition != tt.want {
				t.Errorf("disposition = %s, want %s", sg.Disposition, tt.want)
			}
		})
	}
}

func TestProcessPopulatesSuggestion(t *testing.T) {
	p := NewProcessor()

	in := baseInput()
	in.TraceID = "trace-123"
	in.PayeeDetails = "AB12CD34"
	in.MatchMs = 7
	in.RuleHit = &domain.RuleHit{RuleID: "r1", RuleName: "streaming", CategoryID: "cat-1"}
	in.Schedule = domain.ScheduleMatch{
		Confidence: domain.ConfidenceNone,
		Reasons:    []string{"no active schedules for account acct-001"},
	}

	sg := p.Process(context.Background(), in)

	if sg.ID == "" {
		t.Error("suggestion id not assigned")
	}
	if sg.WorkspaceID != "ws-001" || sg.ImportID != "imp-001" || sg.RowID != "row-001" {
		t.Errorf("row linkage wrong: %+v", sg)
	}
	if sg.PayeeName != "Walmart" || sg.PayeeDetails != "AB12CD34" {
		t.Errorf("payee fields wrong: %q / %q", sg.PayeeName, sg.PayeeDetails)
	}
	if sg.RuleID != "r1" {
		t.Errorf("rule id = %q, want r1", sg.RuleID)
	}
	if len(sg.Reasons) != 2 {
		t.Errorf("reasons = %v, want rule reason plus schedule reason", sg.Reasons)
	}
	if sg.Metadata.TraceID != "trace-123" || sg.Metadata.MatchMs != 7 {
		t.Errorf("metadata wrong: %+v", sg.Metadata)
	}
	if sg.Metadata.EngineVersion != EngineVersion {
		t.Errorf("engine version = %q", sg.Metadata.EngineVersion)
	}
}

func TestShouldReview(t *testing.T) {
	if ShouldReview(&domain.Suggestion{Disposition: domain.DispositionAutoFilled}) {
		t.Error("auto-filled should not need review")
	}
	if !ShouldReview(&domain.Suggestion{Disposition: domain.DispositionNeedsReview}) {
		t.Error("needs-review should need review")
	}
}

func TestTally(t *testing.T) {
	stats := Tally("imp-001", []*domain.Suggestion{
		{Disposition: domain.DispositionAutoFilled},
		{Disposition: domain.DispositionAutoFilled},
		{Disposition: domain.DispositionNeedsReview},
		{Disposition: domain.DispositionUnmatched},
	})

	if stats.ImportID != "imp-001" {
		t.Errorf("import id = %s", stats.ImportID)
	}
	if stats.Rows != 4 || stats.AutoFilled != 2 || stats.NeedsReview != 1 || stats.Unmatched != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
