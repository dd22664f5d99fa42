package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Signal weights for the schedule score. Category is a bonus: it only
// ever adds its full weight on an exact id match.
const (
	weightAmount   = 0.5
	weightDate     = 0.3
	weightPayee    = 0.15
	weightCategory = 0.05
)

// neutralDateScore is the placeholder date-proximity signal. Computing the
// actual next occurrence from the recurrence pattern is not implemented,
// and one-off schedules carry no date to compare against, so every
// schedule gets the same fixed neutral value.
const neutralDateScore = 0.5

// ScheduleConfig configures a ScheduleMatcher. Fixed at construction.
type ScheduleConfig struct {
	// ExactTolerance is the relative amount tolerance for exact-type
	// schedules (default 2%).
	ExactTolerance float64

	// ApproxTolerance is the relative tolerance for approximate-type
	// schedules (default 10%).
	ApproxTolerance float64

	// DateToleranceDays is reserved for the date-proximity signal.
	DateToleranceDays int

	Thresholds domain.Thresholds
}

// DefaultScheduleConfig returns the shipped configuration.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		ExactTolerance:    0.02,
		ApproxTolerance:   0.10,
		DateToleranceDays: 7,
		Thresholds:        domain.DefaultScheduleThresholds(),
	}
}

// ScheduleMatcher scores active recurring schedules against a
// transaction's amount, date, payee, category, and account using a
// weighted multi-criterion formula. Immutable and safe for concurrent use.
type ScheduleMatcher struct {
	cfg    ScheduleConfig
	payees PayeeMatcher
}

// NewScheduleMatcher builds a schedule matcher.
func NewScheduleMatcher(cfg ScheduleConfig) ScheduleMatcher {
	if cfg.ExactTolerance == 0 {
		cfg.ExactTolerance = 0.02
	}
	if cfg.ApproxTolerance == 0 {
		cfg.ApproxTolerance = 0.10
	}
	if cfg.DateToleranceDays == 0 {
		cfg.DateToleranceDays = 7
	}
	if cfg.Thresholds == (domain.Thresholds{}) {
		cfg.Thresholds = domain.DefaultScheduleThresholds()
	}
	return ScheduleMatcher{cfg: cfg, payees: NewPayeeMatcher(DefaultPayeeConfig())}
}

// FindBestMatch scores every qualifying schedule and returns the winner
// with the signals that contributed and human-readable reasons. An empty
// candidate set after filtering yields a none-confidence result with an
// explanatory reason.
func (m ScheduleMatcher) FindBestMatch(criteria domain.MatchCriteria, schedules []*domain.Schedule, payees []*domain.Payee) domain.ScheduleMatch {
	scored := m.scoreAll(criteria, schedules, payees)
	if len(scored) == 0 {
		return domain.ScheduleMatch{
			Confidence: domain.ConfidenceNone,
			MatchedOn:  []domain.Signal{domain.SignalNone},
			Reasons:    []string{fmt.Sprintf("no active schedules for account %s", criteria.AccountID)},
		}
	}
	return scored[0]
}

// FindAllMatches returns every schedule at or above minConfidence
// (excluding none), sorted by score descending. Used to present several
// candidates for user disambiguation rather than silently picking one.
func (m ScheduleMatcher) FindAllMatches(criteria domain.MatchCriteria, schedules []*domain.Schedule, payees []*domain.Payee, minConfidence domain.Confidence) []domain.ScheduleMatch {
	var matches []domain.ScheduleMatch
	for _, candidate := range m.scoreAll(criteria, schedules, payees) {
		if candidate.Confidence == domain.ConfidenceNone {
			continue
		}
		if candidate.Confidence.AtLeast(minConfidence) {
			matches = append(matches, candidate)
		}
	}
	return matches
}

// scoreAll filters to active schedules on the criteria's account and
// returns them scored, sorted descending.
func (m ScheduleMatcher) scoreAll(criteria domain.MatchCriteria, schedules []*domain.Schedule, payees []*domain.Payee) []domain.ScheduleMatch {
	byID := make(map[string]*domain.Payee, len(payees))
	for _, p := range payees {
		byID[p.ID] = p
	}

	var scored []domain.ScheduleMatch
	for _, s := range schedules {
		if s.Status != domain.ScheduleActive || s.AccountID != criteria.AccountID {
			continue
		}
		scored = append(scored, m.score(criteria, s, byID))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Schedule.ID < scored[j].Schedule.ID
	})
	return scored
}

func (m ScheduleMatcher) score(criteria domain.MatchCriteria, s *domain.Schedule, payees map[string]*domain.Payee) domain.ScheduleMatch {
	var signals []domain.Signal
	var reasons []string

	amountScore := m.amountScore(criteria.Amount, s)
	if amountScore > 0 {
		signals = append(signals, domain.SignalAmount)
		reasons = append(reasons, fmt.Sprintf("amount %.2f matches %s amount %.2f (signal %.2f)",
			criteria.Amount, s.AmountType, s.Amount, amountScore))
	}

	dateScore := m.dateScore(criteria, s)

	payeeScore := m.payeeScore(criteria, s, payees)
	if payeeScore > 0 {
		signals = append(signals, domain.SignalPayee)
		reasons = append(reasons, fmt.Sprintf("payee matches (signal %.2f)", payeeScore))
	}

	categoryScore := 0.0
	if s.CategoryID != "" && criteria.CategoryID != "" && s.CategoryID == criteria.CategoryID {
		categoryScore = 1.0
		signals = append(signals, domain.SignalCategory)
		reasons = append(reasons, "category matches exactly")
	}

	total := weightAmount*amountScore +
		weightDate*dateScore +
		weightPayee*payeeScore +
		weightCategory*categoryScore

	if len(signals) == 0 {
		signals = []domain.Signal{domain.SignalNone}
		reasons = append(reasons, "no signals matched")
	}

	return domain.ScheduleMatch{
		Schedule:   s,
		Confidence: domain.ConfidenceFor(total, m.cfg.Thresholds),
		Score:      total,
		MatchedOn:  signals,
		Reasons:    reasons,
	}
}

// amountScore branches on the schedule's amount type.
func (m ScheduleMatcher) amountScore(amount float64, s *domain.Schedule) float64 {
	amount = math.Abs(amount)

	switch s.AmountType {
	case domain.AmountTypeExact:
		tolerance := s.Amount * m.cfg.ExactTolerance
		diff := math.Abs(amount - s.Amount)
		switch {
		case diff == 0:
			return 1.0
		case diff <= tolerance:
			return 0.95
		default:
			return 0
		}

	case domain.AmountTypeApproximate:
		tolerance := s.Amount * m.cfg.ApproxTolerance
		diff := math.Abs(amount - s.Amount)
		if tolerance > 0 && diff <= tolerance {
			return 1 - diff/tolerance
		}
		return 0

	case domain.AmountTypeRange:
		if s.Amount2 == nil {
			return 0
		}
		lo := math.Min(s.Amount, *s.Amount2)
		hi := math.Max(s.Amount, *s.Amount2)
		if amount >= lo && amount <= hi {
			return 1.0
		}
		margin := (hi - lo) * 0.10
		if amount >= lo-margin && amount <= hi+margin {
			return 0.8
		}
		return 0
	}
	return 0
}

// dateScore is a placeholder: recurrence-aware next-occurrence proximity
// is not computed, so every schedule contributes the neutral value.
func (m ScheduleMatcher) dateScore(_ domain.MatchCriteria, _ *domain.Schedule) float64 {
	return neutralDateScore
}

// payeeScore: an exact payee-id match wins outright; otherwise the
// criteria's free-text payee name is fuzzy-matched against the schedule's
// one payee and the confidence band mapped to a score.
func (m ScheduleMatcher) payeeScore(criteria domain.MatchCriteria, s *domain.Schedule, payees map[string]*domain.Payee) float64 {
	if s.PayeeID == "" {
		return 0
	}
	if criteria.PayeeID != "" && criteria.PayeeID == s.PayeeID {
		return 1.0
	}
	if criteria.PayeeName == "" {
		return 0
	}
	p, ok := payees[s.PayeeID]
	if !ok {
		return 0
	}

	result := m.payees.FindBestMatch(criteria.PayeeName, []*domain.Payee{p})
	switch result.Confidence {
	case domain.ConfidenceExact:
		return 1.0
	case domain.ConfidenceHigh:
		return 0.9
	case domain.ConfidenceMedium:
		return 0.7
	default:
		return 0
	}
}
