package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/frequency"
	"github.com/opensource-finance/kestrel/internal/ingest"
	"github.com/opensource-finance/kestrel/internal/match"
	"github.com/opensource-finance/kestrel/internal/pipeline"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/worker"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	engine    *rules.Engine
	pipeline  *pipeline.Pipeline
	frequency *frequency.Service
	version   string

	// async routes imports through the event bus instead of matching
	// inline (Pro tier with a worker attached).
	async bool
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, p *pipeline.Pipeline, freq *frequency.Service, version string, async bool) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		engine:    engine,
		pipeline:  p,
		frequency: freq,
		version:   version,
		async:     async,
	}
}

// RowRequest is one imported bank row as submitted by a client. Amount
// and date arrive as the raw strings banks export; both are parsed
// server-side so every client sees identical semantics.
type RowRequest struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount,omitempty"`
	AmountRaw   string  `json:"amountRaw,omitempty"`
	Payee       string  `json:"payee"`
	Description string  `json:"description,omitempty"`
}

// toImportRow validates and converts the request into a domain row.
func (rr RowRequest) toImportRow(workspaceID, importID, accountID string) (*domain.ImportRow, error) {
	if rr.Payee == "" {
		return nil, errors.New("payee is required")
	}

	date, err := ingest.ParseDate(rr.Date)
	if err != nil {
		return nil, err
	}

	amount := rr.Amount
	if rr.AmountRaw != "" {
		cents, err := ingest.ParseAmount(rr.AmountRaw)
		if err != nil {
			return nil, err
		}
		amount = ingest.AmountToFloat(cents)
	}

	id := rr.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &domain.ImportRow{
		ID:          id,
		WorkspaceID: workspaceID,
		ImportID:    importID,
		AccountID:   accountID,
		Date:        date,
		Amount:      amount,
		RawPayee:    rr.Payee,
		Description: rr.Description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MatchRequest is the request body for POST /match.
type MatchRequest struct {
	AccountID string     `json:"accountId"`
	ImportID  string     `json:"importId,omitempty"`
	Row       RowRequest `json:"row"`
}

// Match handles POST /match: one row, matched synchronously. The row and
// its suggestion are persisted so the result is reviewable later.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	traceID := GetTraceID(ctx)

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "accountId is required",
		})
		return
	}

	importID := req.ImportID
	if importID == "" {
		importID = uuid.New().String()
	}

	row, err := req.Row.toImportRow(workspaceID, importID, req.AccountID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveImportRow(ctx, workspaceID, row); err != nil {
			slog.Error("failed to save import row", "row_id", row.ID, "error", err)
		}
	}

	suggestion, err := h.pipeline.MatchRow(ctx, workspaceID, row, traceID)
	if err != nil {
		slog.Error("row matching failed", "row_id", row.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "matching failed",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveSuggestion(ctx, workspaceID, suggestion); err != nil {
			slog.Error("failed to save suggestion", "row_id", row.ID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(suggestion)
		if err := h.bus.Publish(ctx, workspaceID, domain.TopicSuggestionCreated, payload); err != nil {
			slog.Error("failed to publish suggestion", "row_id", row.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, suggestion)
}

// ImportRequest is the request body for POST /import.
type ImportRequest struct {
	ImportID  string       `json:"importId,omitempty"`
	AccountID string       `json:"accountId"`
	Rows      []RowRequest `json:"rows"`
}

// ImportResponse is the response for POST /import.
type ImportResponse struct {
	ImportID    string               `json:"importId"`
	Stats       *domain.ImportStats  `json:"stats,omitempty"`
	Suggestions []*domain.Suggestion `json:"suggestions,omitempty"`
	Queued      int                  `json:"queued,omitempty"`
}

// Import handles POST /import: a batch of rows from one account. In sync
// mode every row is matched inline and the response carries the full
// per-import statistics. In async mode rows are queued on the event bus
// for the worker and the response is a 202.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	traceID := GetTraceID(ctx)

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "accountId is required",
		})
		return
	}
	if len(req.Rows) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rows must not be empty",
		})
		return
	}

	importID := req.ImportID
	if importID == "" {
		importID = uuid.New().String()
	}

	rows := make([]*domain.ImportRow, 0, len(req.Rows))
	for i, rr := range req.Rows {
		row, err := rr.toImportRow(workspaceID, importID, req.AccountID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": err.Error(),
				"row":   i,
			})
			return
		}
		rows = append(rows, row)
	}

	if h.repo != nil {
		for _, row := range rows {
			if err := h.repo.SaveImportRow(ctx, workspaceID, row); err != nil {
				slog.Error("failed to save import row", "row_id", row.ID, "error", err)
			}
		}
	}

	if h.async && h.bus != nil {
		queued := 0
		for _, row := range rows {
			msg := worker.RowMessage{
				RowID:       row.ID,
				WorkspaceID: workspaceID,
				ImportID:    importID,
				AccountID:   row.AccountID,
				TraceID:     traceID,
				Date:        row.Date,
				Amount:      row.Amount,
				RawPayee:    row.RawPayee,
				Description: row.Description,
			}
			payload, _ := json.Marshal(msg)
			if err := h.bus.Publish(ctx, workspaceID, domain.TopicRowIngested, payload); err != nil {
				slog.Error("failed to queue row", "row_id", row.ID, "error", err)
				continue
			}
			queued++
		}

		slog.Info("import queued",
			"import_id", importID,
			"workspace_id", workspaceID,
			"rows", queued,
		)
		writeJSON(w, http.StatusAccepted, ImportResponse{
			ImportID: importID,
			Queued:   queued,
		})
		return
	}

	suggestions := make([]*domain.Suggestion, 0, len(rows))
	for _, row := range rows {
		suggestion, err := h.pipeline.MatchRow(ctx, workspaceID, row, traceID)
		if err != nil {
			slog.Error("row matching failed", "row_id", row.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "matching failed",
			})
			return
		}
		if h.repo != nil {
			if err := h.repo.SaveSuggestion(ctx, workspaceID, suggestion); err != nil {
				slog.Error("failed to save suggestion", "row_id", row.ID, "error", err)
			}
		}
		suggestions = append(suggestions, suggestion)
	}

	stats := domain.ImportStats{ImportID: importID}
	for _, sg := range suggestions {
		stats.Add(sg)
	}

	slog.Info("import matched",
		"import_id", importID,
		"workspace_id", workspaceID,
		"rows", stats.Rows,
		"auto_filled", stats.AutoFilled,
		"needs_review", stats.NeedsReview,
		"unmatched", stats.Unmatched,
	)

	writeJSON(w, http.StatusOK, ImportResponse{
		ImportID:    importID,
		Stats:       &stats,
		Suggestions: suggestions,
	})
}

// GetSuggestion retrieves a suggestion by ID.
func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	id := chi.URLParam(r, "id")

	sg, err := h.repo.GetSuggestion(ctx, workspaceID, id)
	if err != nil {
		writeRepoError(w, "suggestion", err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// ListImportSuggestions retrieves every suggestion of an import.
func (h *Handler) ListImportSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	importID := chi.URLParam(r, "id")

	suggestions, err := h.repo.ListSuggestionsByImport(ctx, workspaceID, importID)
	if err != nil {
		writeRepoError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"importId":    importID,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// GetImportStats retrieves the disposition tally of an import.
func (h *Handler) GetImportStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	importID := chi.URLParam(r, "id")

	stats, err := h.repo.GetImportStats(ctx, workspaceID, importID)
	if err != nil {
		writeRepoError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// NormalizePayeeRequest is the request body for POST /payees/normalize.
type NormalizePayeeRequest struct {
	Name string `json:"name"`
}

// NormalizePayee handles POST /payees/normalize: runs the payee name
// cleaner without touching any stored data.
func (h *Handler) NormalizePayee(w http.ResponseWriter, r *http.Request) {
	var req NormalizePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	normalized := match.NormalizePayeeName(req.Name)
	writeJSON(w, http.StatusOK, normalized)
}

// ============================================================================
// LEDGER HANDLERS
// ============================================================================

// ListCategories returns every category of the workspace.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	categories, err := h.repo.ListCategories(ctx, workspaceID)
	if err != nil {
		writeRepoError(w, "categories", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategory retrieves a category by ID.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	id := chi.URLParam(r, "id")

	c, err := h.repo.GetCategory(ctx, workspaceID, id)
	if err != nil {
		writeRepoError(w, "category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CreateCategory creates or updates a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}

	c := &domain.Category{
		ID:          req.ID,
		WorkspaceID: workspaceID,
		Name:        req.Name,
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	if err := h.repo.SaveCategory(ctx, workspaceID, c); err != nil {
		writeRepoError(w, "category", err)
		return
	}

	slog.Info("category created", "id", c.ID, "name", c.Name)
	writeJSON(w, http.StatusCreated, c)
}

// ListPayees returns every payee of the workspace.
func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	payees, err := h.repo.ListPayees(ctx, workspaceID)
	if err != nil {
		writeRepoError(w, "payees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payees": payees,
		"count":  len(payees),
	})
}

// GetPayee retrieves a payee by ID.
func (h *Handler) GetPayee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	id := chi.URLParam(r, "id")

	p, err := h.repo.GetPayee(ctx, workspaceID, id)
	if err != nil {
		writeRepoError(w, "payee", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePayeeRequest is the request body for creating a payee. A raw
// bank string is accepted; the cleaner derives the canonical name.
type CreatePayeeRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	RawName string `json:"rawName,omitempty"`
}

// CreatePayee creates or updates a payee.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	var req CreatePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	name := req.Name
	if name == "" && req.RawName != "" {
		name = match.CleanPayeeName(req.RawName)
	}
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name or rawName is required",
		})
		return
	}

	p := &domain.Payee{
		ID:          req.ID,
		WorkspaceID: workspaceID,
		Name:        name,
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	if err := h.repo.SavePayee(ctx, workspaceID, p); err != nil {
		writeRepoError(w, "payee", err)
		return
	}

	slog.Info("payee created", "id", p.ID, "name", p.Name)
	writeJSON(w, http.StatusCreated, p)
}

// GetPayeeFrequency classifies how often a payee is paid from the stored
// suggestion history.
func (h *Handler) GetPayeeFrequency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	id := chi.URLParam(r, "id")

	if h.frequency == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "frequency service not available",
		})
		return
	}

	freq, err := h.frequency.Classify(ctx, workspaceID, id)
	if err != nil {
		writeRepoError(w, "payee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"payeeId":   id,
		"frequency": string(freq),
	})
}

// ListSchedules returns every schedule of the workspace.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	schedules, err := h.repo.ListSchedules(ctx, workspaceID)
	if err != nil {
		writeRepoError(w, "schedules", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// GetSchedule retrieves a schedule by ID.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)
	id := chi.URLParam(r, "id")

	s, err := h.repo.GetSchedule(ctx, workspaceID, id)
	if err != nil {
		writeRepoError(w, "schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateScheduleRequest is the request body for creating a schedule.
type CreateScheduleRequest struct {
	ID         string   `json:"id,omitempty"`
	AccountID  string   `json:"accountId"`
	Name       string   `json:"name"`
	PayeeID    string   `json:"payeeId,omitempty"`
	CategoryID string   `json:"categoryId,omitempty"`
	Amount     float64  `json:"amount"`
	Amount2    *float64 `json:"amount2,omitempty"`
	AmountType string   `json:"amountType"`
	Recurring  bool     `json:"recurring"`
	Status     string   `json:"status,omitempty"`
}

// CreateSchedule creates or updates a schedule and invalidates the
// account's cached candidates so the next match sees it.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Name == "" || req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name and accountId are required",
		})
		return
	}

	amountType := domain.AmountType(req.AmountType)
	switch amountType {
	case domain.AmountTypeExact, domain.AmountTypeApproximate, domain.AmountTypeRange:
	case "":
		amountType = domain.AmountTypeExact
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "amountType must be exact, approximate, or range",
		})
		return
	}
	if amountType == domain.AmountTypeRange && req.Amount2 == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "amount2 is required for range schedules",
		})
		return
	}

	status := domain.ScheduleStatus(req.Status)
	if status == "" {
		status = domain.ScheduleActive
	}

	s := &domain.Schedule{
		ID:          req.ID,
		WorkspaceID: workspaceID,
		AccountID:   req.AccountID,
		Name:        req.Name,
		PayeeID:     req.PayeeID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Amount2:     req.Amount2,
		AmountType:  amountType,
		Recurring:   req.Recurring,
		Status:      status,
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	if err := h.repo.SaveSchedule(ctx, workspaceID, s); err != nil {
		writeRepoError(w, "schedule", err)
		return
	}

	if h.pipeline != nil {
		h.pipeline.InvalidateCandidates(ctx, workspaceID, s.AccountID)
	}

	slog.Info("schedule created", "id", s.ID, "name", s.Name)
	writeJSON(w, http.StatusCreated, s)
}

// ============================================================================
// RULE HANDLERS
// ============================================================================

// ListRules returns all loaded rules for the workspace.
// Rules load from the database at startup and reload via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	workspaceID := GetWorkspaceID(r.Context())

	var loaded []*domain.CategoryRule
	for _, rule := range h.engine.GetLoadedRules() {
		if rule.WorkspaceID == "" || rule.WorkspaceID == workspaceID {
			loaded = append(loaded, rule)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  loaded,
		"count":  len(loaded),
		"source": "database",
	})
}

// GetRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	workspaceID := GetWorkspaceID(r.Context())
	ruleID := chi.URLParam(r, "id")

	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID != ruleID {
			continue
		}
		if rule.WorkspaceID != "" && rule.WorkspaceID != workspaceID {
			continue
		}
		writeJSON(w, http.StatusOK, rule)
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Expression  string  `json:"expression"`
	CategoryID  string  `json:"categoryId"`
	Score       float64 `json:"score,omitempty"`
	Priority    int     `json:"priority,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// CreateRule validates, persists, and hot-loads a categorization rule.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Name == "" || req.Expression == "" || req.CategoryID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name, expression, and categoryId are required",
		})
		return
	}

	rule := &domain.CategoryRule{
		ID:          req.ID,
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		CategoryID:  req.CategoryID,
		Score:       req.Score,
		Priority:    req.Priority,
		Enabled:     req.Enabled,
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := h.engine.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid rule expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRule(ctx, workspaceID, rule); err != nil {
			slog.Error("failed to save rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	if rule.Enabled {
		if err := h.engine.LoadRule(rule); err != nil {
			slog.Error("failed to load rule", "id", rule.ID, "error", err)
		}
	}

	slog.Info("rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, rule)
}

// ReloadRules reloads the workspace's rules from the database into the
// engine. This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaceID := GetWorkspaceID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListRules(ctx, workspaceID)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	if err := h.engine.ReloadWorkspaceRules(workspaceID, dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database",
		"workspace_id", workspaceID,
		"count", len(dbRules),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

// ============================================================================
// HEALTH
// ============================================================================

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRepoError maps repository errors onto HTTP statuses.
func writeRepoError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": what + " not found",
		})
	case errors.Is(err, repository.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	default:
		slog.Error("repository error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
	}
}
