package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "kestrel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	workspaceID := "ws-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetCategory", func(t *testing.T) {
		c := &domain.Category{ID: "cat-001", Name: "Groceries"}

		if err := repo.SaveCategory(ctx, workspaceID, c); err != nil {
			t.Fatalf("SaveCategory failed: %v", err)
		}

		retrieved, err := repo.GetCategory(ctx, workspaceID, c.ID)
		if err != nil {
			t.Fatalf("GetCategory failed: %v", err)
		}
		if retrieved.Name != "Groceries" || retrieved.WorkspaceID != workspaceID {
			t.Errorf("got %+v", retrieved)
		}

		// Upsert renames in place.
		c.Name = "Food"
		if err := repo.SaveCategory(ctx, workspaceID, c); err != nil {
			t.Fatalf("SaveCategory upsert failed: %v", err)
		}
		retrieved, err = repo.GetCategory(ctx, workspaceID, c.ID)
		if err != nil {
			t.Fatalf("GetCategory failed: %v", err)
		}
		if retrieved.Name != "Food" {
			t.Errorf("name after upsert = %s, want Food", retrieved.Name)
		}

		cats, err := repo.ListCategories(ctx, workspaceID)
		if err != nil {
			t.Fatalf("ListCategories failed: %v", err)
		}
		if len(cats) != 1 {
			t.Errorf("expected 1 category, got %d", len(cats))
		}
	})

	t.Run("SaveAndGetPayee", func(t *testing.T) {
		lastTx := time.Now().UTC().Truncate(time.Second)
		p := &domain.Payee{
			ID:                "payee-001",
			Name:              "Walmart",
			LastTransactionAt: &lastTx,
			Frequency:         domain.FrequencyMonthly,
		}

		if err := repo.SavePayee(ctx, workspaceID, p); err != nil {
			t.Fatalf("SavePayee failed: %v", err)
		}

		retrieved, err := repo.GetPayee(ctx, workspaceID, p.ID)
		if err != nil {
			t.Fatalf("GetPayee failed: %v", err)
		}
		if retrieved.Name != "Walmart" || retrieved.Frequency != domain.FrequencyMonthly {
			t.Errorf("got %+v", retrieved)
		}
		if retrieved.LastTransactionAt == nil {
			t.Error("last transaction timestamp not persisted")
		}
	})

	t.Run("SaveAndListSchedules", func(t *testing.T) {
		hi := 100.0
		active := &domain.Schedule{
			ID:         "sched-001",
			AccountID:  "acct-001",
			Name:       "Rent",
			PayeeID:    "payee-001",
			CategoryID: "cat-001",
			Amount:     50.0,
			Amount2:    &hi,
			AmountType: domain.AmountTypeRange,
			Recurring:  true,
			Status:     domain.ScheduleActive,
		}
		paused := &domain.Schedule{
			ID:         "sched-002",
			AccountID:  "acct-001",
			Name:       "Old gym",
			Amount:     25.0,
			AmountType: domain.AmountTypeExact,
			Status:     domain.SchedulePaused,
		}
		otherAccount := &domain.Schedule{
			ID:         "sched-003",
			AccountID:  "acct-002",
			Name:       "Internet",
			Amount:     60.0,
			AmountType: domain.AmountTypeExact,
			Status:     domain.ScheduleActive,
		}

		for _, s := range []*domain.Schedule{active, paused, otherAccount} {
			if err := repo.SaveSchedule(ctx, workspaceID, s); err != nil {
				t.Fatalf("SaveSchedule failed: %v", err)
			}
		}

		retrieved, err := repo.GetSchedule(ctx, workspaceID, "sched-001")
		if err != nil {
			t.Fatalf("GetSchedule failed: %v", err)
		}
		if retrieved.Amount2 == nil || *retrieved.Amount2 != 100.0 {
			t.Errorf("amount2 = %v, want 100", retrieved.Amount2)
		}
		if !retrieved.Recurring || retrieved.AmountType != domain.AmountTypeRange {
			t.Errorf("got %+v", retrieved)
		}

		all, err := repo.ListSchedules(ctx, workspaceID)
		if err != nil {
			t.Fatalf("ListSchedules failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 schedules, got %d", len(all))
		}

		candidates, err := repo.ListActiveSchedules(ctx, workspaceID, "acct-001")
		if err != nil {
			t.Fatalf("ListActiveSchedules failed: %v", err)
		}
		if len(candidates) != 1 || candidates[0].ID != "sched-001" {
			t.Errorf("active candidates = %+v, want only sched-001", candidates)
		}
	})

	t.Run("SaveAndListRules", func(t *testing.T) {
		high := &domain.CategoryRule{
			ID:         "rule-001",
			Name:       "streaming",
			Expression: `payee.contains("netflix")`,
			CategoryID: "cat-001",
			Score:      1.0,
			Priority:   10,
			Enabled:    true,
		}
		low := &domain.CategoryRule{
			ID:         "rule-002",
			Name:       "catchall",
			Expression: `amount < 5.0`,
			CategoryID: "cat-001",
			Score:      0.9,
			Priority:   1,
			Enabled:    false,
		}

		for _, rule := range []*domain.CategoryRule{low, high} {
			if err := repo.SaveRule(ctx, workspaceID, rule); err != nil {
				t.Fatalf("SaveRule failed: %v", err)
			}
		}

		retrieved, err := repo.GetRule(ctx, workspaceID, "rule-002")
		if err != nil {
			t.Fatalf("GetRule failed: %v", err)
		}
		if retrieved.Enabled {
			t.Error("disabled rule came back enabled")
		}

		rules, err := repo.ListRules(ctx, workspaceID)
		if err != nil {
			t.Fatalf("ListRules failed: %v", err)
		}
		if len(rules) != 2 || rules[0].ID != "rule-001" {
			t.Errorf("rules = %+v, want rule-001 first by priority", rules)
		}
	})

	t.Run("ImportRowsAndSuggestions", func(t *testing.T) {
		rowDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		row := &domain.ImportRow{
			ID:        "row-001",
			ImportID:  "imp-001",
			AccountID: "acct-001",
			Date:      rowDate,
			Amount:    -54.12,
			RawPayee:  "WALMART #1234",
		}

		if err := repo.SaveImportRow(ctx, workspaceID, row); err != nil {
			t.Fatalf("SaveImportRow failed: %v", err)
		}

		retrieved, err := repo.GetImportRow(ctx, workspaceID, row.ID)
		if err != nil {
			t.Fatalf("GetImportRow failed: %v", err)
		}
		if retrieved.RawPayee != "WALMART #1234" || retrieved.Amount != -54.12 {
			t.Errorf("got %+v", retrieved)
		}

		sg := &domain.Suggestion{
			ID:          "sg-001",
			ImportID:    "imp-001",
			RowID:       "row-001",
			Disposition: domain.DispositionAutoFilled,
			PayeeName:   "Walmart",
			Payee: domain.PayeeMatch{
				Payee:      &domain.Payee{ID: "payee-001", Name: "Walmart"},
				Confidence: domain.ConfidenceHigh,
				Score:      0.85,
				MatchedOn:  domain.SignalName,
			},
			Reasons:   []string{"payee matches"},
			Metadata:  domain.SuggestionMetadata{TraceID: "trace-001", EngineVersion: "kestrel-1.0"},
			CreatedAt: time.Now().UTC(),
		}

		if err := repo.SaveSuggestion(ctx, workspaceID, sg); err != nil {
			t.Fatalf("SaveSuggestion failed: %v", err)
		}

		got, err := repo.GetSuggestion(ctx, workspaceID, sg.ID)
		if err != nil {
			t.Fatalf("GetSuggestion failed: %v", err)
		}
		if got.Disposition != domain.DispositionAutoFilled {
			t.Errorf("disposition = %s", got.Disposition)
		}
		if got.Payee.Payee == nil || got.Payee.Payee.ID != "payee-001" {
			t.Errorf("payee match did not round-trip: %+v", got.Payee)
		}
		if got.Payee.Confidence != domain.ConfidenceHigh || got.Payee.Score != 0.85 {
			t.Errorf("payee match fields wrong: %+v", got.Payee)
		}
		if got.Metadata.TraceID != "trace-001" {
			t.Errorf("metadata did not round-trip: %+v", got.Metadata)
		}

		list, err := repo.ListSuggestionsByImport(ctx, workspaceID, "imp-001")
		if err != nil {
			t.Fatalf("ListSuggestionsByImport failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 suggestion, got %d", len(list))
		}

		count, err := repo.CountPayeeRows(ctx, workspaceID, "payee-001", rowDate.Add(-time.Hour))
		if err != nil {
			t.Fatalf("CountPayeeRows failed: %v", err)
		}
		if count != 1 {
			t.Errorf("CountPayeeRows = %d, want 1", count)
		}
		count, err = repo.CountPayeeRows(ctx, workspaceID, "payee-001", rowDate.Add(time.Hour))
		if err != nil {
			t.Fatalf("CountPayeeRows failed: %v", err)
		}
		if count != 0 {
			t.Errorf("CountPayeeRows since future = %d, want 0", count)
		}
	})

	t.Run("ImportStats", func(t *testing.T) {
		for i, d := range []domain.Disposition{
			domain.DispositionNeedsReview,
			domain.DispositionUnmatched,
		} {
			sg := &domain.Suggestion{
				ID:          "sg-stats-" + string(rune('a'+i)),
				ImportID:    "imp-001",
				RowID:       "row-001",
				Disposition: d,
				PayeeName:   "x",
				CreatedAt:   time.Now().UTC(),
			}
			if err := repo.SaveSuggestion(ctx, workspaceID, sg); err != nil {
				t.Fatalf("SaveSuggestion failed: %v", err)
			}
		}

		stats, err := repo.GetImportStats(ctx, workspaceID, "imp-001")
		if err != nil {
			t.Fatalf("GetImportStats failed: %v", err)
		}
		if stats.Rows != 3 || stats.AutoFilled != 1 || stats.NeedsReview != 1 || stats.Unmatched != 1 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("WorkspaceIsolation", func(t *testing.T) {
		otherWorkspace := "ws-002"

		if _, err := repo.GetCategory(ctx, otherWorkspace, "cat-001"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound for different workspace, got: %v", err)
		}
		if _, err := repo.GetSuggestion(ctx, otherWorkspace, "sg-001"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound for different workspace, got: %v", err)
		}
	})

	t.Run("RequiresWorkspaceID", func(t *testing.T) {
		if err := repo.SaveCategory(ctx, "", &domain.Category{ID: "x"}); err == nil {
			t.Error("expected error for empty workspaceID")
		}
		if _, err := repo.GetPayee(ctx, "", "payee-001"); err == nil {
			t.Error("expected error for empty workspaceID")
		}
		if _, err := repo.ListRules(ctx, ""); err == nil {
			t.Error("expected error for empty workspaceID")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := repo.GetSchedule(ctx, workspaceID, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
		if _, err := repo.GetImportRow(ctx, workspaceID, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
