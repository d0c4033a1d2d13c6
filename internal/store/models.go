// Package store defines the persisted entities and the narrow repository
// interfaces the core calls through. The relational engine behind them is a
// black box; implementations live in the postgres and memory subpackages.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction payment lifecycle states.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"
	TxStatusRefunded  = "refunded"
)

// Profile is a user profile with its credit balance. Credits are mutated
// only through DeductCredit and AddCredits, never by direct writes.
type Profile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Name      string    `json:"name"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Report is one completed analysis: the canonical rows that went in, the
// model's verdict and the derived summary fields the dashboard lists.
// Immutable once created.
type Report struct {
	ID                string         `gorm:"primaryKey" json:"id"`
	UserID            string         `gorm:"index" json:"user_id"`
	RawData           datatypes.JSON `json:"raw_data"`
	AIAnalysis        datatypes.JSON `json:"ai_analysis"`
	FileName          string         `json:"file_name,omitempty"`
	TransactionsCount int            `json:"transactions_count"`
	TotalIncome       float64        `json:"total_income"`
	TotalExpenses     float64        `json:"total_expenses"`
	HealthScore       int            `json:"health_score"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ReportSummary is the listing projection of a report (no payloads).
type ReportSummary struct {
	ID                string    `json:"id"`
	TransactionsCount int       `json:"transactions_count"`
	TotalIncome       float64   `json:"total_income"`
	TotalExpenses     float64   `json:"total_expenses"`
	HealthScore       int       `json:"health_score"`
	CreatedAt         time.Time `json:"created_at"`
}

// PaymentTransaction is a credit purchase, created pending at
// checkout-initiation and completed exactly once by the webhook processor.
type PaymentTransaction struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	UserID            string    `gorm:"index" json:"user_id"`
	PackageType       string    `json:"package_type"`
	Amount            float64   `json:"amount"`
	Credits           int       `json:"credits"`
	Status            string    `json:"status"`
	Provider          string    `json:"provider"`
	ProviderSessionID string    `gorm:"index" json:"provider_session_id"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProcessedWebhookEvent is a write-once idempotency record keyed by the
// provider's event id.
type ProcessedWebhookEvent struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	EventID   string         `gorm:"uniqueIndex" json:"event_id"`
	EventType string         `json:"event_type"`
	Provider  string         `json:"provider"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditLog is an append-only record of security-relevant actions.
type AuditLog struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"index" json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
