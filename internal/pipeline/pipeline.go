// Package pipeline runs an imported bank row through the full matching
// flow: payee cleaning, rule evaluation, category/payee/schedule matching,
// and suggestion assembly. Both the synchronous API path and the async
// worker share this code so a row is matched the same way regardless of
// how it arrived.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/opensource-finance/kestrel/internal/autofill"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/match"
	"github.com/opensource-finance/kestrel/internal/rules"
)

// DefaultCandidateTTL bounds how stale a cached candidate set may be.
const DefaultCandidateTTL = 5 * time.Minute

// Pipeline wires the matchers, rule engine, and disposition processor
// into a single row-matching flow. Immutable after construction and safe
// for concurrent use.
type Pipeline struct {
	repo  domain.Repository
	cache domain.Cache

	engine     *rules.Engine
	categories match.CategoryMatcher
	payees     match.PayeeMatcher
	schedules  match.ScheduleMatcher
	processor  *autofill.Processor

	candidateTTL time.Duration
}

// New builds a pipeline from the matching configuration. A nil cache is
// allowed; candidates are then loaded from the repository on every row.
func New(repo domain.Repository, cache domain.Cache, engine *rules.Engine, cfg domain.MatchingConfig) *Pipeline {
	categoryCfg := match.DefaultCategoryConfig()
	categoryCfg.UseKeywords = cfg.UseKeywords
	categoryCfg.IncludePayeeName = cfg.IncludePayeeName
	categoryCfg.Patterns = cfg.KeywordPatterns

	scheduleCfg := match.DefaultScheduleConfig()
	if cfg.ExactTolerance > 0 {
		scheduleCfg.ExactTolerance = cfg.ExactTolerance
	}
	if cfg.ApproxTolerance > 0 {
		scheduleCfg.ApproxTolerance = cfg.ApproxTolerance
	}
	if cfg.DateToleranceDays > 0 {
		scheduleCfg.DateToleranceDays = cfg.DateToleranceDays
	}

	processor := autofill.NewProcessor()
	if cfg.AutoFillConfidence != "" {
		processor.AutoFillConfidence = cfg.AutoFillConfidence
	}

	return &Pipeline{
		repo:         repo,
		cache:        cache,
		engine:       engine,
		categories:   match.NewCategoryMatcher(categoryCfg),
		payees:       match.NewPayeeMatcher(match.DefaultPayeeConfig()),
		schedules:    match.NewScheduleMatcher(scheduleCfg),
		processor:    processor,
		candidateTTL: DefaultCandidateTTL,
	}
}

// Candidates returns the candidate lists the matchers score against,
// cache-first with a repository fallback. A cache miss repopulates the
// cache so the next row on the same account is cheap.
func (p *Pipeline) Candidates(ctx context.Context, workspaceID, accountID string) (*domain.CandidateSet, error) {
	if p.cache != nil {
		set, err := p.cache.GetCandidates(ctx, workspaceID, accountID)
		if err != nil {
			slog.Warn("candidate cache read failed",
				"workspace_id", workspaceID,
				"account_id", accountID,
				"error", err,
			)
		} else if set != nil {
			return set, nil
		}
	}

	categories, err := p.repo.ListCategories(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	payees, err := p.repo.ListPayees(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	schedules, err := p.repo.ListActiveSchedules(ctx, workspaceID, accountID)
	if err != nil {
		return nil, err
	}

	set := &domain.CandidateSet{
		Categories: categories,
		Payees:     payees,
		Schedules:  schedules,
	}

	if p.cache != nil {
		if err := p.cache.SetCandidates(ctx, workspaceID, accountID, set, p.candidateTTL); err != nil {
			slog.Warn("candidate cache write failed",
				"workspace_id", workspaceID,
				"account_id", accountID,
				"error", err,
			)
		}
	}

	return set, nil
}

// InvalidateCandidates drops the cached candidate set for an account.
// Called after ledger writes so the next match sees fresh data.
func (p *Pipeline) InvalidateCandidates(ctx context.Context, workspaceID, accountID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.InvalidateCandidates(ctx, workspaceID, accountID); err != nil {
		slog.Warn("candidate cache invalidation failed",
			"workspace_id", workspaceID,
			"account_id", accountID,
			"error", err,
		)
	}
}

// MatchRow matches one imported row against the workspace's ledger and
// returns the assembled suggestion. The suggestion is not persisted; the
// caller owns saving and event publication.
func (p *Pipeline) MatchRow(ctx context.Context, workspaceID string, row *domain.ImportRow, traceID string) (*domain.Suggestion, error) {
	start := time.Now()

	normalized := match.NormalizePayeeName(row.RawPayee)

	candidates, err := p.Candidates(ctx, workspaceID, row.AccountID)
	if err != nil {
		return nil, err
	}

	matchStart := time.Now()

	var ruleHit *domain.RuleHit
	if p.engine != nil && p.engine.RulesCount() > 0 {
		hit, fired, err := p.engine.BestHit(ctx, &rules.EvaluateInput{
			WorkspaceID: workspaceID,
			RowID:       row.ID,
			Payee:       normalized.Name,
			PayeeRaw:    row.RawPayee,
			Description: row.Description,
			Amount:      row.Amount,
			AccountID:   row.AccountID,
		})
		if err != nil {
			slog.Error("rule evaluation failed",
				"row_id", row.ID,
				"error", err,
			)
		} else if fired {
			ruleHit = &hit
		}
	}

	categoryMatch, ruleHit := p.matchCategory(normalized, row, ruleHit, candidates)
	payeeMatch := p.payees.FindBestMatch(row.RawPayee, candidates.Payees)

	criteria := domain.MatchCriteria{
		Date:      row.Date,
		Amount:    row.Amount,
		PayeeName: normalized.Name,
		AccountID: row.AccountID,
	}
	if payeeMatch.Payee != nil {
		criteria.PayeeID = payeeMatch.Payee.ID
	}
	if categoryMatch.Category != nil {
		criteria.CategoryID = categoryMatch.Category.ID
	}
	scheduleMatch := p.schedules.FindBestMatch(criteria, candidates.Schedules, candidates.Payees)

	matchMs := time.Since(matchStart).Milliseconds()

	suggestion := p.processor.Process(ctx, &autofill.DecisionInput{
		WorkspaceID:  workspaceID,
		ImportID:     row.ImportID,
		RowID:        row.ID,
		TraceID:      traceID,
		PayeeName:    normalized.Name,
		PayeeDetails: normalized.Details,
		Category:     categoryMatch,
		Payee:        payeeMatch,
		Schedule:     scheduleMatch,
		RuleHit:      ruleHit,
		MatchMs:      matchMs,
		StartTime:    start,
	})

	return suggestion, nil
}

// matchCategory resolves the row's category. A rule hit pre-empts the
// heuristic pass: its target category is looked up directly and carried
// at exact confidence. A hit whose category no longer exists is dropped
// so the disposition falls back to the heuristic signals.
func (p *Pipeline) matchCategory(normalized match.NormalizedName, row *domain.ImportRow, ruleHit *domain.RuleHit, candidates *domain.CandidateSet) (domain.CategoryMatch, *domain.RuleHit) {
	if ruleHit != nil {
		for _, c := range candidates.Categories {
			if c.ID == ruleHit.CategoryID {
				return domain.CategoryMatch{
					Category:   c,
					Confidence: domain.ConfidenceExact,
					Score:      ruleHit.Score,
					MatchedOn:  domain.SignalName,
				}, ruleHit
			}
		}
		slog.Warn("rule references unknown category",
			"rule_id", ruleHit.RuleID,
			"category_id", ruleHit.CategoryID,
		)
		ruleHit = nil
	}

	return p.categories.FindBestMatch(match.CategoryQuery{
		PayeeName:   normalized.Name,
		Description: row.Description,
	}, candidates.Categories), ruleHit
}

// SuggestNewCategory proposes a category name for an unmatched row from
// the keyword dictionary, for workspaces that want one-click creation.
func (p *Pipeline) SuggestNewCategory(payeeName, description string) (string, bool) {
	return p.categories.SuggestCategoryName(payeeName, description)
}
