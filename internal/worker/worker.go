// Package worker provides async row matching for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/kestrel/internal/autofill"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/pipeline"
)

// Worker matches imported rows asynchronously from the EventBus.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	pipeline *pipeline.Pipeline

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// WorkspaceIDs is the list of workspaces to process (empty = all via
	// wildcard if the bus supports it)
	WorkspaceIDs []string

	// WorkerCount is the number of concurrent workers per workspace
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, p *pipeline.Pipeline) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		pipeline: p,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing rows for the given workspaces.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.WorkspaceIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, workspaceID := range cfg.WorkspaceIDs {
		if err := w.startWorkspaceWorker(workspaceID); err != nil {
			slog.Error("failed to start worker for workspace",
				"workspace_id", workspaceID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"workspace_count", len(cfg.WorkspaceIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all workspaces (for
// testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" workspace ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicRowIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startWorkspaceWorker starts workers for a specific workspace.
func (w *Worker) startWorkspaceWorker(workspaceID string) error {
	sub, err := w.bus.Subscribe(w.ctx, workspaceID, domain.TopicRowIngested, func(ctx context.Context, msg *domain.Message) error {
		return w.processRow(ctx, workspaceID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("workspace worker started",
		"workspace_id", workspaceID,
		"topic", domain.TopicRowIngested,
	)

	return nil
}

// handleMessage handles messages from the global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processRow(ctx, msg.WorkspaceID, msg)
}

// RowMessage is the message payload for row matching. It carries the full
// row so a worker never has to read it back; RowID alone is accepted as a
// fallback and resolved against the repository.
type RowMessage struct {
	RowID       string    `json:"rowId"`
	WorkspaceID string    `json:"workspaceId"`
	ImportID    string    `json:"importId"`
	AccountID   string    `json:"accountId"`
	TraceID     string    `json:"traceId,omitempty"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	RawPayee    string    `json:"rawPayee"`
	Description string    `json:"description,omitempty"`
}

// processRow matches one imported row through the pipeline.
func (w *Worker) processRow(ctx context.Context, workspaceID string, msg *domain.Message) error {
	var rowMsg RowMessage
	if err := json.Unmarshal(msg.Payload, &rowMsg); err != nil {
		slog.Error("failed to parse row message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message workspace if provided
	if rowMsg.WorkspaceID != "" {
		workspaceID = rowMsg.WorkspaceID
	}

	traceID := rowMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	row := &domain.ImportRow{
		ID:          rowMsg.RowID,
		WorkspaceID: workspaceID,
		ImportID:    rowMsg.ImportID,
		AccountID:   rowMsg.AccountID,
		Date:        rowMsg.Date,
		Amount:      rowMsg.Amount,
		RawPayee:    rowMsg.RawPayee,
		Description: rowMsg.Description,
	}

	// A bare row reference: read the stored row instead.
	if row.RawPayee == "" && row.ID != "" && w.repo != nil {
		stored, err := w.repo.GetImportRow(ctx, workspaceID, row.ID)
		if err != nil {
			slog.Error("failed to load row for matching",
				"row_id", row.ID,
				"error", err,
			)
			return err
		}
		row = stored
	}

	slog.Debug("matching row",
		"row_id", row.ID,
		"workspace_id", workspaceID,
		"trace_id", traceID,
	)

	suggestion, err := w.pipeline.MatchRow(ctx, workspaceID, row, traceID)
	if err != nil {
		slog.Error("row matching failed",
			"row_id", row.ID,
			"error", err,
		)
		return err
	}

	if w.repo != nil {
		if err := w.repo.SaveSuggestion(ctx, workspaceID, suggestion); err != nil {
			slog.Error("failed to save suggestion",
				"row_id", row.ID,
				"error", err,
			)
		}
	}

	resultPayload, _ := json.Marshal(suggestion)
	if err := w.bus.Publish(ctx, workspaceID, domain.TopicSuggestionCreated, resultPayload); err != nil {
		slog.Error("failed to publish suggestion",
			"row_id", row.ID,
			"error", err,
		)
	}

	if autofill.ShouldReview(suggestion) {
		if err := w.bus.Publish(ctx, workspaceID, domain.TopicReviewRequired, resultPayload); err != nil {
			slog.Error("failed to publish review notification",
				"row_id", row.ID,
				"error", err,
			)
		}
	}

	if suggestion.Schedule.Confidence.AtLeast(domain.ConfidenceHigh) {
		if err := w.bus.Publish(ctx, workspaceID, domain.TopicScheduleMatched, resultPayload); err != nil {
			slog.Error("failed to publish schedule match",
				"row_id", row.ID,
				"error", err,
			)
		}
	}

	slog.Info("row matched",
		"row_id", row.ID,
		"workspace_id", workspaceID,
		"disposition", suggestion.Disposition,
		"payee", suggestion.PayeeName,
		"duration_ms", suggestion.Metadata.TotalMs,
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
