package match

import (
	"math"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func activeSchedule(id string, amount float64, at domain.AmountType) *domain.Schedule {
	return &domain.Schedule{
		ID:          id,
		WorkspaceID: "ws-001",
		Name:        "schedule " + id,
		AccountID:   "acct-001",
		Amount:      amount,
		AmountType:  at,
		Recurring:   true,
		Status:      domain.ScheduleActive,
	}
}

func scheduleCriteria(amount float64) domain.MatchCriteria {
	return domain.MatchCriteria{
		Date:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:    amount,
		AccountID: "acct-001",
	}
}

func TestScheduleAmountScoreExact(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())
	s := activeSchedule("s1", 100.0, domain.AmountTypeExact)

	if got := m.amountScore(100.0, s); got != 1.0 {
		t.Errorf("equal amount: score = %v, want exactly 1.0", got)
	}
	// Within the 2% tolerance but not equal.
	if got := m.amountScore(101.5, s); got != 0.95 {
		t.Errorf("within tolerance: score = %v, want 0.95", got)
	}
	if got := m.amountScore(110.0, s); got != 0 {
		t.Errorf("outside tolerance: score = %v, want 0", got)
	}
	// Sign is ignored: imports carry outflows as negatives.
	if got := m.amountScore(-100.0, s); got != 1.0 {
		t.Errorf("negative amount: score = %v, want 1.0", got)
	}
}

func TestScheduleAmountScoreApproximateFalloff(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())
	s := activeSchedule("s1", 200.0, domain.AmountTypeApproximate)

	near := m.amountScore(205.0, s) // 5 off, tolerance 20
	far := m.amountScore(215.0, s)  // 15 off

	if math.Abs(near-0.75) > 1e-9 {
		t.Errorf("near miss: score = %v, want 0.75", near)
	}
	if math.Abs(far-0.25) > 1e-9 {
		t.Errorf("far miss: score = %v, want 0.25", far)
	}
	if !(far < near) {
		t.Errorf("falloff not monotonic: far %v >= near %v", far, near)
	}
	if got := m.amountScore(200.0, s); got != 1.0 {
		t.Errorf("dead-on amount: score = %v, want 1.0", got)
	}
	if got := m.amountScore(221.0, s); got != 0 {
		t.Errorf("beyond tolerance: score = %v, want 0", got)
	}
}

func TestScheduleAmountScoreRange(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())
	hi := 100.0
	s := activeSchedule("s1", 50.0, domain.AmountTypeRange)
	s.Amount2 = &hi

	if got := m.amountScore(75.0, s); got != 1.0 {
		t.Errorf("inside range: score = %v, want 1.0", got)
	}
	// Width is 50, margin 5.
	if got := m.amountScore(103.0, s); got != 0.8 {
		t.Errorf("within margin: score = %v, want 0.8", got)
	}
	if got := m.amountScore(46.0, s); got != 0.8 {
		t.Errorf("within low margin: score = %v, want 0.8", got)
	}
	if got := m.amountScore(110.0, s); got != 0 {
		t.Errorf("outside margin: score = %v, want 0", got)
	}

	s.Amount2 = nil
	if got := m.amountScore(75.0, s); got != 0 {
		t.Errorf("range without upper bound: score = %v, want 0", got)
	}
}

func TestScheduleFindBestMatchNoCandidates(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	got := m.FindBestMatch(scheduleCriteria(100.0), nil, nil)

	if got.Confidence != domain.ConfidenceNone {
		t.Errorf("confidence = %s, want none", got.Confidence)
	}
	if len(got.Reasons) == 0 {
		t.Error("expected an explanatory reason for the empty candidate set")
	}
	if len(got.MatchedOn) != 1 || got.MatchedOn[0] != domain.SignalNone {
		t.Errorf("matchedOn = %v, want [none]", got.MatchedOn)
	}
}

func TestScheduleFiltersInactiveAndWrongAccount(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	paused := activeSchedule("s1", 100.0, domain.AmountTypeExact)
	paused.Status = domain.SchedulePaused
	other := activeSchedule("s2", 100.0, domain.AmountTypeExact)
	other.AccountID = "acct-999"

	got := m.FindBestMatch(scheduleCriteria(100.0), []*domain.Schedule{paused, other}, nil)

	if got.Confidence != domain.ConfidenceNone || got.Schedule != nil {
		t.Errorf("got %s/%+v, want none with no schedule", got.Confidence, got.Schedule)
	}
}

func TestScheduleWeightedScore(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	s := activeSchedule("s1", 100.0, domain.AmountTypeExact)
	s.PayeeID = "payee-001"
	s.CategoryID = "cat-001"

	criteria := scheduleCriteria(100.0)
	criteria.PayeeID = "payee-001"
	criteria.CategoryID = "cat-001"

	got := m.FindBestMatch(criteria, []*domain.Schedule{s}, nil)

	// 0.5*1.0 amount + 0.3*0.5 date + 0.15*1.0 payee + 0.05*1.0 category.
	want := 0.85
	if diff := got.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v", got.Score, want)
	}
	if got.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %s, want high", got.Confidence)
	}
	for _, signal := range []domain.Signal{domain.SignalAmount, domain.SignalPayee, domain.SignalCategory} {
		found := false
		for _, s := range got.MatchedOn {
			if s == signal {
				found = true
			}
		}
		if !found {
			t.Errorf("signal %s missing from MatchedOn %v", signal, got.MatchedOn)
		}
	}
	if len(got.Reasons) == 0 {
		t.Error("expected reasons for the contributing signals")
	}
}

func TestScheduleDateSignalNeutralForAll(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	recurring := activeSchedule("s1", 100.0, domain.AmountTypeExact)
	oneOff := activeSchedule("s2", 100.0, domain.AmountTypeExact)
	oneOff.Recurring = false

	// Schedules carry no date field, so the date signal is the same
	// neutral value whether or not the schedule recurs.
	criteria := scheduleCriteria(100.0)
	if got, want := m.dateScore(criteria, recurring), m.dateScore(criteria, oneOff); got != want {
		t.Errorf("date signal %v for recurring vs %v for one-off, want equal", got, want)
	}

	// A one-off schedule is still matchable on its other signals.
	got := m.FindBestMatch(criteria, []*domain.Schedule{oneOff}, nil)
	if got.Schedule == nil || got.Schedule.ID != "s2" {
		t.Errorf("got %+v, want one-off schedule s2", got.Schedule)
	}
}

func TestSchedulePayeeScoreByName(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	s := activeSchedule("s1", 15.99, domain.AmountTypeExact)
	s.PayeeID = "payee-nf"
	known := []*domain.Payee{{ID: "payee-nf", WorkspaceID: "ws-001", Name: "Netflix"}}

	criteria := scheduleCriteria(15.99)
	criteria.PayeeName = "NETFLIX.COM"

	got := m.FindBestMatch(criteria, []*domain.Schedule{s}, known)

	// Containment lands the payee signal in the high band: 0.9 * 0.15.
	want := 0.5*1.0 + 0.3*0.5 + 0.15*0.9
	if diff := got.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v", got.Score, want)
	}
	hasPayee := false
	for _, signal := range got.MatchedOn {
		if signal == domain.SignalPayee {
			hasPayee = true
		}
	}
	if !hasPayee {
		t.Errorf("payee signal missing from MatchedOn %v", got.MatchedOn)
	}
}

func TestScheduleFindAllMatchesOrdering(t *testing.T) {
	m := NewScheduleMatcher(DefaultScheduleConfig())

	strong := activeSchedule("s1", 100.0, domain.AmountTypeExact)
	weak := activeSchedule("s2", 100.0, domain.AmountTypeApproximate)

	got := m.FindAllMatches(scheduleCriteria(98.0), []*domain.Schedule{weak, strong}, nil, domain.ConfidenceLow)

	// 98 against exact 100 is inside the 2% tolerance (0.95 signal); the
	// approximate schedule scores 0.8 on the same amount. Both clear the
	// low band and the exact schedule ranks first.
	if len(got) != 2 {
		t.Fatalf("returned %d matches, want 2: %+v", len(got), got)
	}
	if got[0].Schedule.ID != "s1" {
		t.Errorf("best match = %s, want the exact schedule s1", got[0].Schedule.ID)
	}
	if got[1].Score > got[0].Score {
		t.Error("matches not sorted descending")
	}
}
