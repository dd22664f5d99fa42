package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require workspaceID for strict workspace isolation.
type Repository interface {
	// Category operations
	SaveCategory(ctx context.Context, workspaceID string, c *Category) error
	GetCategory(ctx context.Context, workspaceID string, id string) (*Category, error)
	ListCategories(ctx context.Context, workspaceID string) ([]*Category, error)

	// Payee operations
	SavePayee(ctx context.Context, workspaceID string, p *Payee) error
	GetPayee(ctx context.Context, workspaceID string, id string) (*Payee, error)
	ListPayees(ctx context.Context, workspaceID string) ([]*Payee, error)
	CountPayeeRows(ctx context.Context, workspaceID string, payeeID string, since time.Time) (int64, error)

	// Schedule operations
	SaveSchedule(ctx context.Context, workspaceID string, s *Schedule) error
	GetSchedule(ctx context.Context, workspaceID string, id string) (*Schedule, error)
	ListSchedules(ctx context.Context, workspaceID string) ([]*Schedule, error)
	ListActiveSchedules(ctx context.Context, workspaceID string, accountID string) ([]*Schedule, error)

	// Categorization rule operations
	SaveRule(ctx context.Context, workspaceID string, r *CategoryRule) error
	GetRule(ctx context.Context, workspaceID string, id string) (*CategoryRule, error)
	ListRules(ctx context.Context, workspaceID string) ([]*CategoryRule, error)

	// Imported rows and match suggestions
	SaveImportRow(ctx context.Context, workspaceID string, row *ImportRow) error
	GetImportRow(ctx context.Context, workspaceID string, id string) (*ImportRow, error)
	SaveSuggestion(ctx context.Context, workspaceID string, sg *Suggestion) error
	GetSuggestion(ctx context.Context, workspaceID string, id string) (*Suggestion, error)
	ListSuggestionsByImport(ctx context.Context, workspaceID string, importID string) ([]*Suggestion, error)
	GetImportStats(ctx context.Context, workspaceID string, importID string) (*ImportStats, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `json:"driver"`

	// SQLite settings
	SQLitePath string `json:"sqlitePath,omitempty"`

	// PostgreSQL settings
	PostgresHost     string `json:"postgresHost,omitempty"`
	PostgresPort     int    `json:"postgresPort,omitempty"`
	PostgresDB       string `json:"postgresDb,omitempty"`
	PostgresUser     string `json:"postgresUser,omitempty"`
	PostgresPassword string `json:"-"`
	PostgresSSLMode  string `json:"postgresSslMode,omitempty"`

	// Connection pool settings
	MaxOpenConns    int           `json:"maxOpenConns,omitempty"`
	MaxIdleConns    int           `json:"maxIdleConns,omitempty"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime,omitempty"`
}
