package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/pipeline"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/rules"
)

// apiStubRepo backs the handlers with in-memory maps. Unimplemented
// Repository methods panic if called.
type apiStubRepo struct {
	domain.Repository

	mu          sync.Mutex
	categories  []*domain.Category
	payees      []*domain.Payee
	schedules   []*domain.Schedule
	rules       []*domain.CategoryRule
	rows        map[string]*domain.ImportRow
	suggestions map[string]*domain.Suggestion
}

func newAPIStubRepo() *apiStubRepo {
	return &apiStubRepo{
		rows:        make(map[string]*domain.ImportRow),
		suggestions: make(map[string]*domain.Suggestion),
	}
}

func (r *apiStubRepo) Ping(ctx context.Context) error { return nil }

func (r *apiStubRepo) ListCategories(ctx context.Context, workspaceID string) ([]*domain.Category, error) {
	return r.categories, nil
}

func (r *apiStubRepo) ListPayees(ctx context.Context, workspaceID string) ([]*domain.Payee, error) {
	return r.payees, nil
}

func (r *apiStubRepo) ListActiveSchedules(ctx context.Context, workspaceID, accountID string) ([]*domain.Schedule, error) {
	return r.schedules, nil
}

func (r *apiStubRepo) SaveImportRow(ctx context.Context, workspaceID string, row *domain.ImportRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[row.ID] = row
	return nil
}

func (r *apiStubRepo) SaveSuggestion(ctx context.Context, workspaceID string, sg *domain.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[sg.ID] = sg
	return nil
}

func (r *apiStubRepo) GetSuggestion(ctx context.Context, workspaceID, id string) (*domain.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sg, ok := r.suggestions[id]; ok {
		return sg, nil
	}
	return nil, repository.ErrNotFound
}

func (r *apiStubRepo) SaveRule(ctx context.Context, workspaceID string, rule *domain.CategoryRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
	return nil
}

func (r *apiStubRepo) ListRules(ctx context.Context, workspaceID string) ([]*domain.CategoryRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules, nil
}

// createTestServer wires a server against the stub repo with one
// categorization rule loaded.
func createTestServer(repo *apiStubRepo, async bool, eventBus domain.EventBus) *Server {
	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	engine, _ := rules.NewEngine(5)
	engine.LoadRule(&domain.CategoryRule{
		ID:         "r-netflix",
		Name:       "Netflix Subscription",
		Expression: `payee_raw.contains("NETFLIX")`,
		CategoryID: "c-streaming",
		Enabled:    true,
	})

	p := pipeline.New(repo, nil, engine, domain.DefaultConfig().Matching)

	return NewServer(cfg, repo, nil, eventBus, engine, p, nil, "test-v1", async)
}

func defaultFixtures(repo *apiStubRepo) {
	repo.categories = []*domain.Category{
		{ID: "c-streaming", WorkspaceID: "ws-001", Name: "Streaming"},
		{ID: "c-groceries", WorkspaceID: "ws-001", Name: "Groceries"},
	}
	repo.payees = []*domain.Payee{
		{ID: "p-netflix", WorkspaceID: "ws-001", Name: "Netflix"},
		{ID: "p-walmart", WorkspaceID: "ws-001", Name: "Walmart"},
	}
}

func postJSON(t *testing.T, server *Server, path string, body any, workspaceID string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	if workspaceID != "" {
		req.Header.Set("X-Workspace-ID", workspaceID)
	}

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestMatchEndpoint(t *testing.T) {
	repo := newAPIStubRepo()
	defaultFixtures(repo)
	server := createTestServer(repo, false, nil)

	t.Run("RuleDrivenAutoFill", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{
			AccountID: "acct-001",
			Row: RowRequest{
				Date:   "03/15/2026",
				Amount: -15.49,
				Payee:  "NETFLIX.COM 866-579-7172",
			},
		}, "ws-001")

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var sg domain.Suggestion
		if err := json.Unmarshal(rr.Body.Bytes(), &sg); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if sg.RuleID != "r-netflix" {
			t.Errorf("expected rule r-netflix, got '%s'", sg.RuleID)
		}
		if sg.Disposition != domain.DispositionAutoFilled {
			t.Errorf("expected auto-filled, got '%s'", sg.Disposition)
		}
		if sg.PayeeName != "Netflix.com" {
			t.Errorf("expected cleaned payee 'Netflix.com', got '%s'", sg.PayeeName)
		}
		if sg.Category.Category == nil || sg.Category.Category.ID != "c-streaming" {
			t.Error("expected rule category resolved on suggestion")
		}

		// Row and suggestion both persisted
		repo.mu.Lock()
		defer repo.mu.Unlock()
		if len(repo.rows) != 1 {
			t.Errorf("expected 1 saved row, got %d", len(repo.rows))
		}
		if _, ok := repo.suggestions[sg.ID]; !ok {
			t.Error("expected suggestion persisted under its id")
		}
	})

	t.Run("RawAmountParsed", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{
			AccountID: "acct-001",
			Row: RowRequest{
				Date:      "2026-03-20",
				AmountRaw: "($1,234.56)",
				Payee:     "WALMART SUPERCENTER #1234",
			},
		}, "ws-001")

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var sg domain.Suggestion
		json.Unmarshal(rr.Body.Bytes(), &sg)
		if sg.Payee.Payee == nil || sg.Payee.Payee.ID != "p-walmart" {
			t.Error("expected Walmart payee match")
		}

		repo.mu.Lock()
		row := repo.rows[sg.RowID]
		repo.mu.Unlock()
		if row == nil {
			t.Fatal("expected saved row")
		}
		if row.Amount != -1234.56 {
			t.Errorf("expected parsed amount -1234.56, got %v", row.Amount)
		}
	})

	t.Run("MissingWorkspaceID", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{AccountID: "acct-001"}, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/match", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Workspace-ID", "ws-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingAccountID", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{
			Row: RowRequest{Date: "03/15/2026", Amount: -5, Payee: "X"},
		}, "ws-001")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UnparseableDate", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{
			AccountID: "acct-001",
			Row:       RowRequest{Date: "not a date", Amount: -5, Payee: "X"},
		}, "ws-001")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		rr := postJSON(t, server, "/match", MatchRequest{
			AccountID: "acct-001",
			Row:       RowRequest{Date: "03/15/2026", Amount: -5, Payee: "SHELL OIL 57444"},
		}, "ws-001")

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

func TestImportEndpoint(t *testing.T) {
	t.Run("SyncImport", func(t *testing.T) {
		repo := newAPIStubRepo()
		defaultFixtures(repo)
		server := createTestServer(repo, false, nil)

		rr := postJSON(t, server, "/import", ImportRequest{
			ImportID:  "imp-001",
			AccountID: "acct-001",
			Rows: []RowRequest{
				{Date: "03/01/2026", Amount: -15.49, Payee: "NETFLIX.COM"},
				{Date: "03/02/2026", Amount: -87.12, Payee: "WALMART #1234"},
				{Date: "03/03/2026", Amount: -4.00, Payee: "ZZYZX UNKNOWN VENDOR"},
			},
		}, "ws-001")

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp ImportResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.ImportID != "imp-001" {
			t.Errorf("expected importId imp-001, got '%s'", resp.ImportID)
		}
		if resp.Stats == nil || resp.Stats.Rows != 3 {
			t.Fatalf("expected stats over 3 rows, got %+v", resp.Stats)
		}
		if resp.Stats.AutoFilled < 2 {
			t.Errorf("expected netflix and walmart rows auto-filled, got %+v", resp.Stats)
		}
		if resp.Stats.Unmatched != 1 {
			t.Errorf("expected 1 unmatched row, got %+v", resp.Stats)
		}
		if len(resp.Suggestions) != 3 {
			t.Errorf("expected 3 suggestions, got %d", len(resp.Suggestions))
		}
	})

	t.Run("AsyncImportQueues", func(t *testing.T) {
		repo := newAPIStubRepo()
		defaultFixtures(repo)
		eventBus := bus.NewChannelBus(100)
		defer eventBus.Close()
		server := createTestServer(repo, true, eventBus)

		rr := postJSON(t, server, "/import", ImportRequest{
			AccountID: "acct-001",
			Rows: []RowRequest{
				{Date: "03/01/2026", Amount: -15.49, Payee: "NETFLIX.COM"},
				{Date: "03/02/2026", Amount: -87.12, Payee: "WALMART #1234"},
			},
		}, "ws-001")

		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp ImportResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Queued != 2 {
			t.Errorf("expected 2 queued rows, got %d", resp.Queued)
		}
		if resp.Stats != nil {
			t.Error("async import must not return stats")
		}

		// Rows are persisted before queuing so the worker can find them.
		repo.mu.Lock()
		defer repo.mu.Unlock()
		if len(repo.rows) != 2 {
			t.Errorf("expected 2 saved rows, got %d", len(repo.rows))
		}
	})

	t.Run("EmptyRows", func(t *testing.T) {
		repo := newAPIStubRepo()
		server := createTestServer(repo, false, nil)

		rr := postJSON(t, server, "/import", ImportRequest{AccountID: "acct-001"}, "ws-001")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestNormalizePayeeEndpoint(t *testing.T) {
	repo := newAPIStubRepo()
	server := createTestServer(repo, false, nil)

	rr := postJSON(t, server, "/payees/normalize", NormalizePayeeRequest{
		Name: "CHECKCARD 03/15/2026 STARBUCKS STORE #9931",
	}, "ws-001")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Name    string `json:"name"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Name == "" {
		t.Fatal("expected a cleaned name")
	}
	if resp.Name != "Starbucks" {
		t.Errorf("expected cleaned name 'Starbucks', got '%s'", resp.Name)
	}
}

func TestRuleEndpoints(t *testing.T) {
	repo := newAPIStubRepo()
	defaultFixtures(repo)
	server := createTestServer(repo, false, nil)

	t.Run("CreateRule", func(t *testing.T) {
		rr := postJSON(t, server, "/rules", CreateRuleRequest{
			ID:         "r-grocery",
			Name:       "Grocery Stores",
			Expression: `payee.contains("Market") || payee.contains("Grocery")`,
			CategoryID: "c-groceries",
			Priority:   5,
			Enabled:    true,
		}, "ws-001")

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		repo.mu.Lock()
		saved := len(repo.rules)
		repo.mu.Unlock()
		if saved != 1 {
			t.Errorf("expected rule persisted, have %d", saved)
		}

		// Hot-loaded: listing shows it immediately.
		req := httptest.NewRequest(http.MethodGet, "/rules", nil)
		req.Header.Set("X-Workspace-ID", "ws-001")
		lrr := httptest.NewRecorder()
		server.Router().ServeHTTP(lrr, req)

		var listResp struct {
			Rules []*domain.CategoryRule `json:"rules"`
			Count int                    `json:"count"`
		}
		json.Unmarshal(lrr.Body.Bytes(), &listResp)
		found := false
		for _, rule := range listResp.Rules {
			if rule.ID == "r-grocery" {
				found = true
			}
		}
		if !found {
			t.Error("expected r-grocery in loaded rules")
		}
	})

	t.Run("CreateRuleInvalidExpression", func(t *testing.T) {
		rr := postJSON(t, server, "/rules", CreateRuleRequest{
			Name:       "Broken",
			Expression: `amount * 2.0`,
			CategoryID: "c-groceries",
			Enabled:    true,
		}, "ws-001")

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("GetRuleOtherWorkspaceHidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rules/r-grocery", nil)
		req.Header.Set("X-Workspace-ID", "ws-999")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404 for another workspace, got %d", rr.Code)
		}
	})

	t.Run("ReloadRules", func(t *testing.T) {
		rr := postJSON(t, server, "/rules/reload", struct{}{}, "ws-001")
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	repo := newAPIStubRepo()
	server := createTestServer(repo, false, nil)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("WorkspaceMiddlewareExtractsID", func(t *testing.T) {
		var capturedWorkspaceID string

		handler := WorkspaceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedWorkspaceID = GetWorkspaceID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Workspace-ID", "my-workspace-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedWorkspaceID != "my-workspace-123" {
			t.Errorf("expected workspace ID 'my-workspace-123', got '%s'", capturedWorkspaceID)
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}
