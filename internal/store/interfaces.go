package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("store: not found")

// Profiles reads and mutates user credit balances. Both credit mutations
// must execute as a single conditional statement in the backing store, never
// as a read followed by a write.
type Profiles interface {
	Create(ctx context.Context, profile *Profile) error
	Get(ctx context.Context, userID string) (*Profile, error)

	// GetCredits returns the current balance, or ErrNotFound.
	GetCredits(ctx context.Context, userID string) (int, error)

	// DeductCredit atomically decrements the balance by one, but only while
	// it is positive. Returns false (no error) when no row qualified, which
	// callers treat as the insufficient-credits case.
	DeductCredit(ctx context.Context, userID string) (bool, error)

	// AddCredits atomically increments the balance.
	AddCredits(ctx context.Context, userID string, credits int) error
}

// Reports persists completed analyses. Reports are write-once.
type Reports interface {
	Create(ctx context.Context, report *Report) error
	Get(ctx context.Context, userID, reportID string) (*Report, error)
	ListByUser(ctx context.Context, userID string) ([]ReportSummary, error)

	// LatestByUser returns the most recent report, or ErrNotFound. This is
	// the query behind the dashboard's "latest report" view.
	LatestByUser(ctx context.Context, userID string) (*Report, error)
}

// Transactions persists the payment lifecycle.
type Transactions interface {
	Create(ctx context.Context, tx *PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*PaymentTransaction, error)

	// MarkCompleted transitions a pending transaction to completed. Returns
	// false when the transaction was already completed.
	MarkCompleted(ctx context.Context, id, providerPaymentID string) (bool, error)
}

// WebhookEvents is the idempotency ledger for provider events.
type WebhookEvents interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, event *ProcessedWebhookEvent) error
}

// Audit appends to the audit log. Implementations must never fail a request
// because of audit trouble; errors are for the caller to log.
type Audit interface {
	Log(ctx context.Context, entry *AuditLog) error
}

// Store bundles every repository the service needs.
type Store interface {
	Profiles() Profiles
	Reports() Reports
	Transactions() Transactions
	WebhookEvents() WebhookEvents
	Audit() Audit
}
