package frequency

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// stubRepo returns canned window counts. The shorter window maps to
// recent, the longer to quarter.
type stubRepo struct {
	domain.Repository

	recent     int64
	quarter    int64
	saved      *domain.Payee
	countCalls int
}

func (r *stubRepo) CountPayeeRows(ctx context.Context, workspaceID, payeeID string, since time.Time) (int64, error) {
	r.countCalls++
	if time.Since(since) < 40*24*time.Hour {
		return r.recent, nil
	}
	return r.quarter, nil
}

func (r *stubRepo) SavePayee(ctx context.Context, workspaceID string, p *domain.Payee) error {
	r.saved = p
	return nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		recent  int64
		quarter int64
		want    domain.PaymentFrequency
	}{
		{"no history", 0, 0, domain.FrequencyUnknown},
		{"weekly cadence", 5, 13, domain.FrequencyWeekly},
		{"monthly cadence", 1, 3, domain.FrequencyMonthly},
		{"sparse history", 0, 1, domain.FrequencyIrregular},
		{"burst then silence", 0, 8, domain.FrequencyIrregular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(&stubRepo{recent: tt.recent, quarter: tt.quarter}, nil)

			got, err := s.Classify(context.Background(), "ws-001", "payee-001")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyValidation(t *testing.T) {
	s := NewService(&stubRepo{}, nil)

	if _, err := s.Classify(context.Background(), "", "payee-001"); err == nil {
		t.Error("expected error for missing workspace")
	}
	if _, err := s.Classify(context.Background(), "ws-001", ""); err == nil {
		t.Error("expected error for missing payee")
	}

	none := NewService(nil, nil)
	if _, err := none.Classify(context.Background(), "ws-001", "payee-001"); err == nil {
		t.Error("expected error without a repository")
	}
}

func TestClassifyCachesResult(t *testing.T) {
	repo := &stubRepo{recent: 5, quarter: 13}
	s := NewService(repo, cache.NewLRUCache(16))

	first, err := s.Classify(context.Background(), "ws-001", "payee-001")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	calls := repo.countCalls

	second, err := s.Classify(context.Background(), "ws-001", "payee-001")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if second != first {
		t.Errorf("cached classification = %s, want %s", second, first)
	}
	if repo.countCalls != calls {
		t.Errorf("repeat Classify hit the repository (%d extra calls)", repo.countCalls-calls)
	}

	// A different payee misses the cache and counts again.
	if _, err := s.Classify(context.Background(), "ws-001", "payee-002"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if repo.countCalls == calls {
		t.Error("different payee should not share the cached classification")
	}
}

func TestRefreshDropsCachedClassification(t *testing.T) {
	repo := &stubRepo{recent: 5, quarter: 13}
	s := NewService(repo, cache.NewLRUCache(16))

	if _, err := s.Classify(context.Background(), "ws-001", "payee-001"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	// The payee's cadence collapses; Classify alone would keep serving
	// the cached weekly answer, Refresh must recount.
	repo.recent, repo.quarter = 0, 1

	p := &domain.Payee{ID: "payee-001", Frequency: domain.FrequencyWeekly}
	if err := s.Refresh(context.Background(), "ws-001", p); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if p.Frequency != domain.FrequencyIrregular {
		t.Errorf("frequency = %s, want irregular", p.Frequency)
	}
	if repo.saved != p {
		t.Error("changed frequency was not persisted")
	}
}

func TestRefresh(t *testing.T) {
	repo := &stubRepo{recent: 5, quarter: 13}
	s := NewService(repo, nil)

	p := &domain.Payee{ID: "payee-001", Frequency: domain.FrequencyUnknown}
	if err := s.Refresh(context.Background(), "ws-001", p); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if p.Frequency != domain.FrequencyWeekly {
		t.Errorf("frequency = %s, want weekly", p.Frequency)
	}
	if repo.saved != p {
		t.Error("changed frequency was not persisted")
	}

	// Unchanged classification skips the save.
	repo.saved = nil
	if err := s.Refresh(context.Background(), "ws-001", p); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if repo.saved != nil {
		t.Error("unchanged frequency should not be persisted")
	}
}
