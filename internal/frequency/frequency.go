// Package frequency classifies how often a payee is paid from its
// transaction history.
package frequency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Lookback windows for the row counts the classification is derived from.
const (
	weeklyWindow  = 35 * 24 * time.Hour
	monthlyWindow = 95 * 24 * time.Hour
)

// classifyTTL bounds how stale a cached classification may be. Frequency
// shifts on the scale of weeks, so a short TTL costs little accuracy.
const classifyTTL = 15 * time.Minute

// Service derives a payee's payment frequency by counting its matched
// rows over two lookback windows.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a frequency service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Classify returns the payment frequency for a payee.
//
// Roughly weekly payment lands 4-5 rows in a 35 day window; monthly lands
// about one per month over 95 days. Anything with history that fits
// neither shape is irregular, and no history at all is unknown.
func (s *Service) Classify(ctx context.Context, workspaceID, payeeID string) (domain.PaymentFrequency, error) {
	if workspaceID == "" || payeeID == "" {
		return domain.FrequencyUnknown, fmt.Errorf("workspaceID and payeeID are required")
	}
	if s.repo == nil {
		return domain.FrequencyUnknown, fmt.Errorf("no data source available")
	}

	key := cacheKey(payeeID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, workspaceID, key); err == nil && len(cached) > 0 {
			return domain.PaymentFrequency(cached), nil
		}
	}

	now := time.Now()

	recent, err := s.repo.CountPayeeRows(ctx, workspaceID, payeeID, now.Add(-weeklyWindow))
	if err != nil {
		return domain.FrequencyUnknown, fmt.Errorf("failed to count payee rows: %w", err)
	}
	quarter, err := s.repo.CountPayeeRows(ctx, workspaceID, payeeID, now.Add(-monthlyWindow))
	if err != nil {
		return domain.FrequencyUnknown, fmt.Errorf("failed to count payee rows: %w", err)
	}

	freq := classify(recent, quarter)

	if s.cache != nil {
		if err := s.cache.Set(ctx, workspaceID, key, []byte(freq), classifyTTL); err != nil {
			slog.Warn("frequency cache write failed",
				"workspace_id", workspaceID,
				"payee_id", payeeID,
				"error", err,
			)
		}
	}

	return freq, nil
}

// Refresh reclassifies a payee and persists the result when it changed.
// The cached classification is dropped first so the recount is real.
func (s *Service) Refresh(ctx context.Context, workspaceID string, p *domain.Payee) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, workspaceID, cacheKey(p.ID)); err != nil {
			slog.Warn("frequency cache invalidation failed",
				"workspace_id", workspaceID,
				"payee_id", p.ID,
				"error", err,
			)
		}
	}

	freq, err := s.Classify(ctx, workspaceID, p.ID)
	if err != nil {
		return err
	}
	if freq == p.Frequency {
		return nil
	}
	p.Frequency = freq
	return s.repo.SavePayee(ctx, workspaceID, p)
}

func cacheKey(payeeID string) string {
	return "payee-frequency:" + payeeID
}

// classify maps the two window counts to a frequency band.
func classify(recent, quarter int64) domain.PaymentFrequency {
	switch {
	case quarter == 0:
		return domain.FrequencyUnknown
	case recent >= 4:
		return domain.FrequencyWeekly
	case quarter >= 2 && quarter <= 4 && recent >= 1:
		return domain.FrequencyMonthly
	default:
		return domain.FrequencyIrregular
	}
}
