package domain

import "time"

// Category is a budgeting category supplied by the repository layer.
// The matching engine never mutates it.
type Category struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// PaymentFrequency classifies how often a payee is paid, derived from
// transaction history by the frequency service.
type PaymentFrequency string

const (
	FrequencyWeekly    PaymentFrequency = "weekly"
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyIrregular PaymentFrequency = "irregular"
	FrequencyUnknown   PaymentFrequency = "unknown"
)

// Payee is an existing payee supplied by the repository layer.
type Payee struct {
	ID                string           `json:"id"`
	WorkspaceID       string           `json:"workspaceId"`
	Name              string           `json:"name"`
	LastTransactionAt *time.Time       `json:"lastTransactionAt,omitempty"`
	Frequency         PaymentFrequency `json:"frequency,omitempty"`
	CreatedAt         time.Time        `json:"createdAt,omitempty"`
	UpdatedAt         time.Time        `json:"updatedAt,omitempty"`
}

// AmountType classifies a schedule's expected amount shape.
type AmountType string

const (
	AmountTypeExact       AmountType = "exact"
	AmountTypeApproximate AmountType = "approximate"
	AmountTypeRange       AmountType = "range"
)

// ScheduleStatus is the lifecycle state of a recurring schedule.
// Only active schedules are match candidates.
type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "active"
	SchedulePaused    ScheduleStatus = "paused"
	ScheduleCompleted ScheduleStatus = "completed"
)

// Schedule is a recurring transaction expectation (rent, subscription,
// paycheck). Amount2 is the range upper bound when AmountType is range.
type Schedule struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspaceId"`
	AccountID   string         `json:"accountId"`
	Name        string         `json:"name"`
	PayeeID     string         `json:"payeeId,omitempty"`
	CategoryID  string         `json:"categoryId,omitempty"`
	Amount      float64        `json:"amount"`
	Amount2     *float64       `json:"amount2,omitempty"`
	AmountType  AmountType     `json:"amountType"`
	Recurring   bool           `json:"recurring"`
	Status      ScheduleStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt,omitempty"`
}
