package match

import (
	"sort"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// PayeeConfig configures a PayeeMatcher. Fixed at construction.
type PayeeConfig struct {
	Thresholds domain.Thresholds
}

// DefaultPayeeConfig returns the shipped configuration. The high band
// starts at the substring floor so a containment hit on a known payee is
// strong enough to auto-fill.
func DefaultPayeeConfig() PayeeConfig {
	return PayeeConfig{Thresholds: domain.Thresholds{Exact: 1.0, High: 0.85, Medium: 0.7}}
}

// PayeeMatcher scores existing payees against a raw imported payee string.
// Immutable and safe for concurrent use.
type PayeeMatcher struct {
	cfg PayeeConfig
}

// NewPayeeMatcher builds a payee matcher.
func NewPayeeMatcher(cfg PayeeConfig) PayeeMatcher {
	if cfg.Thresholds == (domain.Thresholds{}) {
		cfg.Thresholds = domain.DefaultMatchThresholds()
	}
	return PayeeMatcher{cfg: cfg}
}

// FindBestMatch returns the strongest payee match for rawName, or a
// none-confidence result for blank input or no qualifying candidate.
// An exact normalized hit stops the scan immediately.
func (m PayeeMatcher) FindBestMatch(rawName string, candidates []*domain.Payee) domain.PayeeMatch {
	best := domain.PayeeMatch{Confidence: domain.ConfidenceNone, MatchedOn: domain.SignalNone}

	input := Normalize(rawName)
	if input == "" {
		return best
	}

	for _, p := range candidates {
		name := Normalize(p.Name)
		if input == name {
			return domain.PayeeMatch{
				Payee:      p,
				Confidence: domain.ConfidenceExact,
				Score:      1.0,
				MatchedOn:  domain.SignalName,
			}
		}
		if score := nameScore(input, name); score > best.Score {
			best = domain.PayeeMatch{
				Payee:      p,
				Confidence: domain.ConfidenceFor(score, m.cfg.Thresholds),
				Score:      score,
				MatchedOn:  domain.SignalName,
			}
		}
	}
	return best
}

// FindPotentialMatches returns every payee scoring at least minScore,
// sorted descending, truncated to limit.
func (m PayeeMatcher) FindPotentialMatches(rawName string, candidates []*domain.Payee, minScore float64, limit int) []domain.PayeeMatch {
	input := Normalize(rawName)
	if input == "" {
		return nil
	}

	var matches []domain.PayeeMatch
	for _, p := range candidates {
		name := Normalize(p.Name)
		score := nameScore(input, name)
		if input == name {
			score = 1.0
		}
		if score < minScore || score <= 0 {
			continue
		}
		matches = append(matches, domain.PayeeMatch{
			Payee:      p,
			Confidence: domain.ConfidenceFor(score, m.cfg.Thresholds),
			Score:      score,
			MatchedOn:  domain.SignalName,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return strings.Compare(matches[i].Payee.Name, matches[j].Payee.Name) < 0
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
