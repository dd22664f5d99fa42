// Package domain defines the core interfaces and types for Kestrel.
package domain

import "time"

// Confidence is the banded strength of a match, derived from a numeric
// score via thresholds.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank orders confidence bands: exact > high > medium > low > none.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceExact:
		return 4
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is at least as strong as other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c.Rank() >= other.Rank()
}

// Thresholds maps numeric scores to the exact/high/medium bands.
// Scores above 0.5 that miss the medium band are low; everything else is none.
type Thresholds struct {
	Exact  float64 `json:"exact"`
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
}

// DefaultMatchThresholds are the bands shared by the category and payee matchers.
func DefaultMatchThresholds() Thresholds {
	return Thresholds{Exact: 1.0, High: 0.9, Medium: 0.7}
}

// DefaultScheduleThresholds are the bands used by the schedule matcher.
func DefaultScheduleThresholds() Thresholds {
	return Thresholds{Exact: 1.0, High: 0.85, Medium: 0.75}
}

// ConfidenceFor derives a confidence band from a score. It is the single
// banding function used by every matcher so the semantics stay consistent.
func ConfidenceFor(score float64, t Thresholds) Confidence {
	switch {
	case score >= t.Exact:
		return ConfidenceExact
	case score >= t.High:
		return ConfidenceHigh
	case score >= t.Medium:
		return ConfidenceMedium
	case score > 0.5:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Signal identifies which comparison produced a match.
type Signal string

const (
	SignalName        Signal = "name"
	SignalKeyword     Signal = "keyword"
	SignalPayee       Signal = "payee"
	SignalDescription Signal = "description"
	SignalAmount      Signal = "amount"
	SignalDate        Signal = "date"
	SignalCategory    Signal = "category"
	SignalNone        Signal = "none"
)

// CategoryMatch is the result of scoring a transaction against existing
// categories. A nil Category with ConfidenceNone means "no match" and is a
// value, never an error.
type CategoryMatch struct {
	Category   *Category  `json:"category,omitempty"`
	Confidence Confidence `json:"confidence"`
	Score      float64    `json:"score"`
	MatchedOn  Signal     `json:"matchedOn"`
}

// PayeeMatch is the result of scoring a raw imported payee string against
// existing payees.
type PayeeMatch struct {
	Payee      *Payee     `json:"payee,omitempty"`
	Confidence Confidence `json:"confidence"`
	Score      float64    `json:"score"`
	MatchedOn  Signal     `json:"matchedOn"`
}

// ScheduleMatch is the result of scoring a transaction against active
// recurring schedules. MatchedOn lists every signal that contributed and
// Reasons carries human-readable explanations for each.
type ScheduleMatch struct {
	Schedule   *Schedule  `json:"schedule,omitempty"`
	Confidence Confidence `json:"confidence"`
	Score      float64    `json:"score"`
	MatchedOn  []Signal   `json:"matchedOn"`
	Reasons    []string   `json:"reasons"`
}

// MatchCriteria is the transient record of a transaction's attributes
// submitted for schedule matching. Constructed per row and discarded.
type MatchCriteria struct {
	Date       time.Time `json:"date"`
	Amount     float64   `json:"amount"`
	PayeeID    string    `json:"payeeId,omitempty"`
	PayeeName  string    `json:"payeeName,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	AccountID  string    `json:"accountId"`
}
