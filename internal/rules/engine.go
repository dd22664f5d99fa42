// Package rules provides the CEL-Go based categorization rule engine.
package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// Engine compiles and evaluates user-defined categorization rules. Rules
// are CEL expressions over an imported row; a rule that evaluates to true
// assigns its category with a fixed score, pre-empting heuristic matching.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.CategoryRule
	Program cel.Program
}

// NewEngine creates a rule engine with the row variables bound into the
// CEL environment.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("payee", cel.StringType),
		cel.Variable("payee_raw", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("account_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles a rule without mutating the loaded set.
func (e *Engine) ValidateRule(rule *domain.CategoryRule) error {
	if rule == nil {
		return fmt.Errorf("rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.CategoryRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiledRules[rule.ID] = compiled

	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(rules []*domain.CategoryRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateInput holds the row fields rules can reference. Payee carries
// the cleaned payee name; PayeeRaw the string as imported.
type EvaluateInput struct {
	WorkspaceID string
	RowID       string
	Payee       string
	PayeeRaw    string
	Description string
	Amount      float64
	AccountID   string
}

// EvaluateAll runs every loaded rule against the input in parallel and
// returns the hits sorted by priority descending, score descending. Rules
// that error are skipped; a malformed rule must not block an import.
func (e *Engine) EvaluateAll(ctx context.Context, input *EvaluateInput) ([]domain.RuleHit, error) {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		// A rule with an empty workspace is global.
		if rule.Rule.WorkspaceID != "" && rule.Rule.WorkspaceID != input.WorkspaceID {
			continue
		}
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil, nil
	}

	activation := map[string]any{
		"row": map[string]any{
			"id":          input.RowID,
			"payee":       input.Payee,
			"payee_raw":   input.PayeeRaw,
			"description": input.Description,
			"amount":      input.Amount,
			"account_id":  input.AccountID,
		},
		"payee":       input.Payee,
		"payee_raw":   input.PayeeRaw,
		"description": input.Description,
		"amount":      input.Amount,
		"account_id":  input.AccountID,
	}

	results := make([]*domain.RuleHit, len(rules))
	var wg sync.WaitGroup

	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = e.evaluateRule(r, activation)
		}(i, rule)
	}

	wg.Wait()

	hits := make([]domain.RuleHit, 0, len(results))
	for _, hit := range results {
		if hit != nil {
			hits = append(hits, *hit)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Priority != hits[j].Priority {
			return hits[i].Priority > hits[j].Priority
		}
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RuleID < hits[j].RuleID
	})

	return hits, nil
}

// BestHit returns the winning hit for the input, or false when no rule
// fires.
func (e *Engine) BestHit(ctx context.Context, input *EvaluateInput) (domain.RuleHit, bool, error) {
	hits, err := e.EvaluateAll(ctx, input)
	if err != nil || len(hits) == 0 {
		return domain.RuleHit{}, false, err
	}
	return hits[0], true, nil
}

// evaluateRule evaluates one rule and returns its hit, or nil when the
// rule did not fire or errored.
func (e *Engine) evaluateRule(rule *CompiledRule, activation map[string]any) *domain.RuleHit {
	start := time.Now()

	out, _, err := rule.Program.Eval(activation)
	if err != nil {
		return nil
	}

	fired, ok := out.(types.Bool)
	if !ok || !bool(fired) {
		return nil
	}

	score := rule.Rule.Score
	if score <= 0 || score > 1.0 {
		score = 1.0
	}

	return &domain.RuleHit{
		RuleID:     rule.Rule.ID,
		RuleName:   rule.Rule.Name,
		CategoryID: rule.Rule.CategoryID,
		Score:      score,
		Priority:   rule.Rule.Priority,
		ProcessMs:  time.Since(start).Milliseconds(),
	}
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// ReloadRules clears all existing rules and loads new ones. This enables
// hot-reloading of rules from the database.
func (e *Engine) ReloadRules(rules []*domain.CategoryRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		newRules[rule.ID] = compiled
	}

	e.compiledRules = newRules

	return nil
}

// ReloadWorkspaceRules replaces one workspace's rules, leaving every
// other workspace's set untouched. All incoming rules compile before
// any swap happens; a bad rule leaves the previous set intact.
func (e *Engine) ReloadWorkspaceRules(workspaceID string, rules []*domain.CategoryRule) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}

	compiled := make(map[string]*CompiledRule)
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		c, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		compiled[rule.ID] = c
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for id, c := range e.compiledRules {
		if c.Rule.WorkspaceID == workspaceID {
			delete(e.compiledRules, id)
		}
	}
	for id, c := range compiled {
		e.compiledRules[id] = c
	}

	return nil
}

// GetLoadedRules returns the currently loaded rules.
func (e *Engine) GetLoadedRules() []*domain.CategoryRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.CategoryRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Close clears the loaded rule set.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(rule *domain.CategoryRule) (*CompiledRule, error) {
	if rule.Expression == "" {
		return nil, fmt.Errorf("rule %s: expression is required", rule.ID)
	}
	if rule.CategoryID == "" {
		return nil, fmt.Errorf("rule %s: category id is required", rule.ID)
	}

	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}
