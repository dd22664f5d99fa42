// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveCategory upserts a category with workspace isolation.
func (r *SQLRepository) SaveCategory(ctx context.Context, workspaceID string, c *domain.Category) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	query := `
		INSERT INTO categories (id, workspace_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id, workspace_id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, workspaceID, c.Name, c.CreatedAt, now,
	)
	return err
}

// GetCategory retrieves a category by ID with workspace isolation.
func (r *SQLRepository) GetCategory(ctx context.Context, workspaceID string, id string) (*domain.Category, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, created_at, updated_at
		FROM categories
		WHERE workspace_id = ? AND id = ?
	`

	var c domain.Category
	err := r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id).Scan(
		&c.ID, &c.WorkspaceID, &c.Name, &c.CreatedAt, &c.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories retrieves all categories for a workspace.
func (r *SQLRepository) ListCategories(ctx context.Context, workspaceID string) ([]*domain.Category, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, created_at, updated_at
		FROM categories
		WHERE workspace_id = ?
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// SavePayee upserts a payee with workspace isolation.
func (r *SQLRepository) SavePayee(ctx context.Context, workspaceID string, p *domain.Payee) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	var lastTx sql.NullTime
	if p.LastTransactionAt != nil {
		lastTx = sql.NullTime{Time: *p.LastTransactionAt, Valid: true}
	}

	query := `
		INSERT INTO payees (id, workspace_id, name, last_transaction_at, frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, workspace_id) DO UPDATE SET
			name = excluded.name,
			last_transaction_at = excluded.last_transaction_at,
			frequency = excluded.frequency,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		p.ID, workspaceID, p.Name, lastTx, string(p.Frequency), p.CreatedAt, now,
	)
	return err
}

// GetPayee retrieves a payee by ID with workspace isolation.
func (r *SQLRepository) GetPayee(ctx context.Context, workspaceID string, id string) (*domain.Payee, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, last_transaction_at, frequency, created_at, updated_at
		FROM payees
		WHERE workspace_id = ? AND id = ?
	`

	p, err := scanPayee(r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListPayees retrieves all payees for a workspace.
func (r *SQLRepository) ListPayees(ctx context.Context, workspaceID string) ([]*domain.Payee, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, last_transaction_at, frequency, created_at, updated_at
		FROM payees
		WHERE workspace_id = ?
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payees []*domain.Payee
	for rows.Next() {
		p, err := scanPayee(rows)
		if err != nil {
			return nil, err
		}
		payees = append(payees, p)
	}
	return payees, rows.Err()
}

// CountPayeeRows counts the matched rows for a payee since a point in
// time, by row date. Feeds the payment-frequency classifier.
func (r *SQLRepository) CountPayeeRows(ctx context.Context, workspaceID string, payeeID string, since time.Time) (int64, error) {
	if workspaceID == "" {
		return 0, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT COUNT(*) FROM suggestions
		WHERE workspace_id = ? AND payee_id = ? AND row_date >= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, payeeID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payee rows: %w", err)
	}
	return count, nil
}

// SaveSchedule upserts a schedule with workspace isolation.
func (r *SQLRepository) SaveSchedule(ctx context.Context, workspaceID string, s *domain.Schedule) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}

	var amount2 sql.NullFloat64
	if s.Amount2 != nil {
		amount2 = sql.NullFloat64{Float64: *s.Amount2, Valid: true}
	}

	recurring := 0
	if s.Recurring {
		recurring = 1
	}

	query := `
		INSERT INTO schedules (
			id, workspace_id, account_id, name, payee_id, category_id,
			amount, amount2, amount_type, recurring, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, workspace_id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			payee_id = excluded.payee_id,
			category_id = excluded.category_id,
			amount = excluded.amount,
			amount2 = excluded.amount2,
			amount_type = excluded.amount_type,
			recurring = excluded.recurring,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		s.ID, workspaceID, s.AccountID, s.Name, s.PayeeID, s.CategoryID,
		s.Amount, amount2, string(s.AmountType), recurring, string(s.Status),
		s.CreatedAt, now,
	)
	return err
}

// GetSchedule retrieves a schedule by ID with workspace isolation.
func (r *SQLRepository) GetSchedule(ctx context.Context, workspaceID string, id string) (*domain.Schedule, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := scheduleSelect + ` WHERE workspace_id = ? AND id = ?`

	s, err := scanSchedule(r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListSchedules retrieves all schedules for a workspace.
func (r *SQLRepository) ListSchedules(ctx context.Context, workspaceID string) ([]*domain.Schedule, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := scheduleSelect + ` WHERE workspace_id = ? ORDER BY name`
	return r.querySchedules(ctx, query, workspaceID)
}

// ListActiveSchedules retrieves the active schedules for an account, the
// candidate set the schedule matcher scores against.
func (r *SQLRepository) ListActiveSchedules(ctx context.Context, workspaceID string, accountID string) ([]*domain.Schedule, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := scheduleSelect + ` WHERE workspace_id = ? AND account_id = ? AND status = 'active' ORDER BY name`
	return r.querySchedules(ctx, query, workspaceID, accountID)
}

const scheduleSelect = `
	SELECT id, workspace_id, account_id, name, payee_id, category_id,
		   amount, amount2, amount_type, recurring, status, created_at, updated_at
	FROM schedules`

func (r *SQLRepository) querySchedules(ctx context.Context, query string, args ...any) ([]*domain.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// SaveRule upserts a categorization rule with workspace isolation.
func (r *SQLRepository) SaveRule(ctx context.Context, workspaceID string, rule *domain.CategoryRule) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	query := `
		INSERT INTO category_rules (
			id, workspace_id, name, description, expression, category_id,
			score, priority, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, workspace_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			category_id = excluded.category_id,
			score = excluded.score,
			priority = excluded.priority,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, workspaceID, rule.Name, rule.Description,
		rule.Expression, rule.CategoryID, rule.Score, rule.Priority, enabled,
		rule.CreatedAt, now,
	)
	return err
}

// GetRule retrieves a categorization rule with workspace isolation.
func (r *SQLRepository) GetRule(ctx context.Context, workspaceID string, id string) (*domain.CategoryRule, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, description, expression, category_id,
			   score, priority, enabled, created_at, updated_at
		FROM category_rules
		WHERE workspace_id = ? AND id = ?
	`

	var rule domain.CategoryRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id).Scan(
		&rule.ID, &rule.WorkspaceID, &rule.Name, &rule.Description,
		&rule.Expression, &rule.CategoryID, &rule.Score, &rule.Priority, &enabled,
		&rule.CreatedAt, &rule.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	return &rule, nil
}

// ListRules retrieves all categorization rules for a workspace, highest
// priority first.
func (r *SQLRepository) ListRules(ctx context.Context, workspaceID string) ([]*domain.CategoryRule, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, name, description, expression, category_id,
			   score, priority, enabled, created_at, updated_at
		FROM category_rules
		WHERE workspace_id = ?
		ORDER BY priority DESC, name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.CategoryRule
	for rows.Next() {
		var rule domain.CategoryRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.WorkspaceID, &rule.Name, &rule.Description,
			&rule.Expression, &rule.CategoryID, &rule.Score, &rule.Priority, &enabled,
			&rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// SaveImportRow stores an imported row with workspace isolation.
func (r *SQLRepository) SaveImportRow(ctx context.Context, workspaceID string, row *domain.ImportRow) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO import_rows (
			id, workspace_id, import_id, account_id, date, amount,
			raw_payee, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		row.ID, workspaceID, row.ImportID, row.AccountID,
		row.Date, row.Amount, row.RawPayee, row.Description, row.CreatedAt,
	)
	return err
}

// GetImportRow retrieves an imported row by ID with workspace isolation.
func (r *SQLRepository) GetImportRow(ctx context.Context, workspaceID string, id string) (*domain.ImportRow, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, workspace_id, import_id, account_id, date, amount,
			   raw_payee, description, created_at
		FROM import_rows
		WHERE workspace_id = ? AND id = ?
	`

	var row domain.ImportRow
	var description sql.NullString

	err := r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id).Scan(
		&row.ID, &row.WorkspaceID, &row.ImportID, &row.AccountID,
		&row.Date, &row.Amount, &row.RawPayee, &description, &row.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	row.Description = description.String
	return &row, nil
}

// SaveSuggestion stores a suggestion with workspace isolation. The match
// payloads are stored as JSON; the matched payee id and row date are
// denormalized into columns for counting.
func (r *SQLRepository) SaveSuggestion(ctx context.Context, workspaceID string, sg *domain.Suggestion) error {
	if workspaceID == "" {
		return fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	categoryMatch, _ := json.Marshal(sg.Category)
	payeeMatch, _ := json.Marshal(sg.Payee)
	scheduleMatch, _ := json.Marshal(sg.Schedule)
	reasons, _ := json.Marshal(sg.Reasons)
	metadata, _ := json.Marshal(sg.Metadata)

	var payeeID sql.NullString
	if sg.Payee.Payee != nil {
		payeeID = sql.NullString{String: sg.Payee.Payee.ID, Valid: true}
	}

	var rowDate sql.NullTime
	if row, err := r.GetImportRow(ctx, workspaceID, sg.RowID); err == nil {
		rowDate = sql.NullTime{Time: row.Date, Valid: true}
	}

	query := `
		INSERT INTO suggestions (
			id, workspace_id, import_id, row_id, row_date, disposition,
			payee_name, payee_details, payee_id, rule_id,
			category_match, payee_match, schedule_match, reasons, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		sg.ID, workspaceID, sg.ImportID, sg.RowID, rowDate, string(sg.Disposition),
		sg.PayeeName, sg.PayeeDetails, payeeID, sg.RuleID,
		string(categoryMatch), string(payeeMatch), string(scheduleMatch),
		string(reasons), string(metadata), sg.CreatedAt,
	)
	return err
}

// GetSuggestion retrieves a suggestion by ID with workspace isolation.
func (r *SQLRepository) GetSuggestion(ctx context.Context, workspaceID string, id string) (*domain.Suggestion, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := suggestionSelect + ` WHERE workspace_id = ? AND id = ?`

	sg, err := scanSuggestion(r.db.QueryRowContext(ctx, r.rebind(query), workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sg, err
}

// ListSuggestionsByImport retrieves every suggestion produced by an
// import run.
func (r *SQLRepository) ListSuggestionsByImport(ctx context.Context, workspaceID string, importID string) ([]*domain.Suggestion, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := suggestionSelect + ` WHERE workspace_id = ? AND import_id = ? ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), workspaceID, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []*domain.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, rows.Err()
}

// GetImportStats tallies an import's suggestions by disposition.
func (r *SQLRepository) GetImportStats(ctx context.Context, workspaceID string, importID string) (*domain.ImportStats, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceID is required", ErrInvalidInput)
	}

	query := `
		SELECT disposition, COUNT(*)
		FROM suggestions
		WHERE workspace_id = ? AND import_id = ?
		GROUP BY disposition
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), workspaceID, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.ImportStats{ImportID: importID}
	for rows.Next() {
		var disposition string
		var count int
		if err := rows.Scan(&disposition, &count); err != nil {
			return nil, err
		}

		stats.Rows += count
		switch domain.Disposition(disposition) {
		case domain.DispositionAutoFilled:
			stats.AutoFilled = count
		case domain.DispositionNeedsReview:
			stats.NeedsReview = count
		default:
			stats.Unmatched += count
		}
	}
	return stats, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayee(s scanner) (*domain.Payee, error) {
	var p domain.Payee
	var lastTx sql.NullTime
	var frequency sql.NullString

	if err := s.Scan(
		&p.ID, &p.WorkspaceID, &p.Name, &lastTx, &frequency,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if lastTx.Valid {
		t := lastTx.Time
		p.LastTransactionAt = &t
	}
	p.Frequency = domain.PaymentFrequency(frequency.String)
	return &p, nil
}

func scanSchedule(s scanner) (*domain.Schedule, error) {
	var sched domain.Schedule
	var payeeID, categoryID sql.NullString
	var amount2 sql.NullFloat64
	var amountType, status string
	var recurring int

	if err := s.Scan(
		&sched.ID, &sched.WorkspaceID, &sched.AccountID, &sched.Name,
		&payeeID, &categoryID, &sched.Amount, &amount2, &amountType,
		&recurring, &status, &sched.CreatedAt, &sched.UpdatedAt,
	); err != nil {
		return nil, err
	}

	sched.PayeeID = payeeID.String
	sched.CategoryID = categoryID.String
	if amount2.Valid {
		v := amount2.Float64
		sched.Amount2 = &v
	}
	sched.AmountType = domain.AmountType(amountType)
	sched.Recurring = recurring == 1
	sched.Status = domain.ScheduleStatus(status)
	return &sched, nil
}

const suggestionSelect = `
	SELECT id, workspace_id, import_id, row_id, disposition,
		   payee_name, payee_details, rule_id,
		   category_match, payee_match, schedule_match, reasons, metadata, created_at
	FROM suggestions`

func scanSuggestion(s scanner) (*domain.Suggestion, error) {
	var sg domain.Suggestion
	var disposition string
	var payeeDetails, ruleID sql.NullString
	var categoryMatch, payeeMatch, scheduleMatch string
	var reasons, metadata sql.NullString

	if err := s.Scan(
		&sg.ID, &sg.WorkspaceID, &sg.ImportID, &sg.RowID, &disposition,
		&sg.PayeeName, &payeeDetails, &ruleID,
		&categoryMatch, &payeeMatch, &scheduleMatch, &reasons, &metadata,
		&sg.CreatedAt,
	); err != nil {
		return nil, err
	}

	sg.Disposition = domain.Disposition(disposition)
	sg.PayeeDetails = payeeDetails.String
	sg.RuleID = ruleID.String
	json.Unmarshal([]byte(categoryMatch), &sg.Category)
	json.Unmarshal([]byte(payeeMatch), &sg.Payee)
	json.Unmarshal([]byte(scheduleMatch), &sg.Schedule)
	if reasons.Valid {
		json.Unmarshal([]byte(reasons.String), &sg.Reasons)
	}
	if metadata.Valid {
		json.Unmarshal([]byte(metadata.String), &sg.Metadata)
	}
	return &sg, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
