package match

import (
	"sort"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// CategoryConfig configures a CategoryMatcher. Fixed at construction.
type CategoryConfig struct {
	Thresholds domain.Thresholds

	// UseKeywords enables the keyword-pattern pass.
	UseKeywords bool

	// IncludePayeeName lets the keyword pass consider the payee text.
	IncludePayeeName bool

	// Patterns merged over DefaultKeywordPatterns; caller entries win.
	Patterns map[string][]string
}

// DefaultCategoryConfig returns the shipped configuration.
func DefaultCategoryConfig() CategoryConfig {
	return CategoryConfig{
		Thresholds:       domain.DefaultMatchThresholds(),
		UseKeywords:      true,
		IncludePayeeName: true,
	}
}

// CategoryQuery is the matching text extracted from an imported row.
type CategoryQuery struct {
	CategoryName string
	PayeeName    string
	Description  string
}

// CategoryMatcher scores existing categories against a transaction's
// category hint, payee, and description. Immutable and safe for
// concurrent use.
type CategoryMatcher struct {
	cfg          CategoryConfig
	patterns     map[string][]string
	patternNames []string
}

// NewCategoryMatcher builds a matcher with cfg.Patterns merged over the
// shipped keyword dictionary.
func NewCategoryMatcher(cfg CategoryConfig) CategoryMatcher {
	if cfg.Thresholds == (domain.Thresholds{}) {
		cfg.Thresholds = domain.DefaultMatchThresholds()
	}
	patterns := MergeKeywordPatterns(DefaultKeywordPatterns(), cfg.Patterns)

	// Sorted pattern names keep the keyword pass deterministic.
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	return CategoryMatcher{cfg: cfg, patterns: patterns, patternNames: names}
}

// FindBestMatch returns the strongest category match for the query, or a
// none-confidence result when nothing qualifies. Never an error.
func (m CategoryMatcher) FindBestMatch(q CategoryQuery, candidates []*domain.Category) domain.CategoryMatch {
	best := domain.CategoryMatch{Confidence: domain.ConfidenceNone, MatchedOn: domain.SignalNone}

	if q.CategoryName != "" {
		name := m.bestNameMatch(q.CategoryName, candidates)
		if name.Confidence == domain.ConfidenceExact {
			return name
		}
		best = name
	}

	// Skip the keyword pass when the name pass already landed high.
	if m.cfg.UseKeywords && !best.Confidence.AtLeast(domain.ConfidenceHigh) {
		if kw := m.bestKeywordMatch(q, candidates); kw.Score > best.Score {
			best = kw
		}
	}

	return best
}

// FindPotentialMatches returns every candidate scoring at least minScore,
// sorted descending, truncated to limit.
func (m CategoryMatcher) FindPotentialMatches(q CategoryQuery, candidates []*domain.Category, minScore float64, limit int) []domain.CategoryMatch {
	byID := make(map[string]domain.CategoryMatch)

	if q.CategoryName != "" {
		qn := Normalize(q.CategoryName)
		for _, c := range candidates {
			score := nameScore(qn, Normalize(c.Name))
			track(byID, domain.CategoryMatch{
				Category:   c,
				Confidence: domain.ConfidenceFor(score, m.cfg.Thresholds),
				Score:      score,
				MatchedOn:  domain.SignalName,
			})
		}
	}

	if m.cfg.UseKeywords {
		for _, hit := range m.keywordMatches(q, candidates) {
			track(byID, hit)
		}
	}

	matches := make([]domain.CategoryMatch, 0, len(byID))
	for _, match := range byID {
		if match.Score >= minScore {
			matches = append(matches, match)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Category.Name < matches[j].Category.Name
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SuggestCategoryName runs a keyword-only pass over the payee and
// description text and returns the winning pattern name. Used when no
// category candidates exist yet. The bool is false when no pattern
// reaches medium confidence.
func (m CategoryMatcher) SuggestCategoryName(payeeName, description string) (string, bool) {
	combined := Normalize(payeeName + " " + description)
	if combined == "" {
		return "", false
	}

	bestName := ""
	bestScore := 0.0
	for _, patternName := range m.patternNames {
		for _, kw := range m.patterns[patternName] {
			if !strings.Contains(combined, kw) {
				continue
			}
			if score := keywordScore(kw); score > bestScore {
				bestScore = score
				bestName = patternName
			}
		}
	}

	if bestScore < 0.7 {
		return "", false
	}
	return bestName, true
}

// bestNameMatch runs plain name matching against every candidate.
func (m CategoryMatcher) bestNameMatch(categoryName string, candidates []*domain.Category) domain.CategoryMatch {
	best := domain.CategoryMatch{Confidence: domain.ConfidenceNone, MatchedOn: domain.SignalNone}
	qn := Normalize(categoryName)

	for _, c := range candidates {
		cn := Normalize(c.Name)
		if qn == cn {
			return domain.CategoryMatch{
				Category:   c,
				Confidence: domain.ConfidenceExact,
				Score:      1.0,
				MatchedOn:  domain.SignalName,
			}
		}
		if score := nameScore(qn, cn); score > best.Score {
			best = domain.CategoryMatch{
				Category:   c,
				Confidence: domain.ConfidenceFor(score, m.cfg.Thresholds),
				Score:      score,
				MatchedOn:  domain.SignalName,
			}
		}
	}
	return best
}

func (m CategoryMatcher) bestKeywordMatch(q CategoryQuery, candidates []*domain.Category) domain.CategoryMatch {
	best := domain.CategoryMatch{Confidence: domain.ConfidenceNone, MatchedOn: domain.SignalNone}
	for _, hit := range m.keywordMatches(q, candidates) {
		if hit.Score > best.Score {
			best = hit
		}
	}
	return best
}

// keywordMatches tests every dictionary entry whose pattern name resolves
// to a candidate against the combined query text. Longer keywords are more
// specific and score higher.
func (m CategoryMatcher) keywordMatches(q CategoryQuery, candidates []*domain.Category) []domain.CategoryMatch {
	payeeText := ""
	if m.cfg.IncludePayeeName {
		payeeText = Normalize(q.PayeeName)
	}
	combined := Normalize(strings.Join([]string{q.CategoryName, payeeText, q.Description}, " "))
	if combined == "" {
		return nil
	}

	byName := make(map[string]*domain.Category, len(candidates))
	for _, c := range candidates {
		byName[Normalize(c.Name)] = c
	}

	var hits []domain.CategoryMatch
	for _, patternName := range m.patternNames {
		cand, ok := byName[Normalize(patternName)]
		if !ok {
			continue
		}
		for _, kw := range m.patterns[patternName] {
			if !strings.Contains(combined, kw) {
				continue
			}
			score := keywordScore(kw)
			signal := domain.SignalDescription
			if payeeText != "" && strings.Contains(payeeText, kw) {
				signal = domain.SignalPayee
			}
			hits = append(hits, domain.CategoryMatch{
				Category:   cand,
				Confidence: domain.ConfidenceFor(score, m.cfg.Thresholds),
				Score:      score,
				MatchedOn:  signal,
			})
		}
	}
	return hits
}

// keywordScore rewards longer, more specific keywords, capped at 0.95 so a
// keyword hit never reads as an exact match.
func keywordScore(kw string) float64 {
	score := 0.75 + 0.02*float64(len(kw))
	if score > 0.95 {
		score = 0.95
	}
	return score
}

// nameScore compares two normalized names: containment either way floors
// the score at 0.85, otherwise plain edit-distance similarity.
func nameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	sim := Similarity(a, b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		if sim < 0.85 {
			return 0.85
		}
	}
	return sim
}

func track(byID map[string]domain.CategoryMatch, match domain.CategoryMatch) {
	if match.Category == nil || match.Score <= 0 {
		return
	}
	if prev, ok := byID[match.Category.ID]; !ok || match.Score > prev.Score {
		byID[match.Category.ID] = match
	}
}
