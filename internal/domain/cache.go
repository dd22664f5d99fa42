package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU plus Redis for the Pro tier.
// All methods require workspaceID for strict workspace isolation.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, workspaceID string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, workspaceID string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, workspaceID string, key string) error

	// GetCandidates retrieves a cached candidate set for an account.
	GetCandidates(ctx context.Context, workspaceID string, accountID string) (*CandidateSet, error)

	// SetCandidates caches the candidate lists used by the matchers so
	// bulk imports do not hit the repository for every row.
	SetCandidates(ctx context.Context, workspaceID string, accountID string, set *CandidateSet, ttl time.Duration) error

	// InvalidateCandidates drops every cached candidate set for an account.
	InvalidateCandidates(ctx context.Context, workspaceID string, accountID string) error

	// IncrementCounter atomically increments a counter and returns new value.
	// Used to tally rows processed per import run.
	IncrementCounter(ctx context.Context, workspaceID string, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CandidateSet holds the pre-fetched candidate lists a matcher scores
// against. Matchers treat it as read-only.
type CandidateSet struct {
	Categories []*Category `json:"categories"`
	Payees     []*Payee    `json:"payees"`
	Schedules  []*Schedule `json:"schedules"`
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
