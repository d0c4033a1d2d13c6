// Package memory implements the store repositories in process memory.
// It backs local development without a database and serves as the test
// double for the orchestrator and webhook processor; the conditional-update
// semantics match the Postgres implementation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finglow/finglow/internal/store"
)

// Store is an in-memory store.Store.
type Store struct {
	mu sync.Mutex

	profiles     map[string]*store.Profile
	reports      map[string]*store.Report
	transactions map[string]*store.PaymentTransaction
	webhooks     map[string]*store.ProcessedWebhookEvent
	auditLog     []*store.AuditLog
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		profiles:     make(map[string]*store.Profile),
		reports:      make(map[string]*store.Report),
		transactions: make(map[string]*store.PaymentTransaction),
		webhooks:     make(map[string]*store.ProcessedWebhookEvent),
	}
}

func (s *Store) Profiles() store.Profiles           { return (*profiles)(s) }
func (s *Store) Reports() store.Reports             { return (*reports)(s) }
func (s *Store) Transactions() store.Transactions   { return (*transactions)(s) }
func (s *Store) WebhookEvents() store.WebhookEvents { return (*webhookEvents)(s) }
func (s *Store) Audit() store.Audit                 { return (*audit)(s) }

// SeedProfile inserts or replaces a profile. Test and dev helper.
func (s *Store) SeedProfile(p store.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.profiles[p.ID] = &cp
}

// AuditEntries returns a snapshot of the audit log. Test helper.
func (s *Store) AuditEntries() []store.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditLog, len(s.auditLog))
	for i, e := range s.auditLog {
		out[i] = *e
	}
	return out
}

type profiles Store

func (r *profiles) Create(_ context.Context, profile *store.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if _, ok := r.profiles[profile.ID]; ok {
		return fmt.Errorf("profiles.Create: profile %s already exists", profile.ID)
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *profiles) Get(_ context.Context, userID string) (*store.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *profiles) GetCredits(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return p.Credits, nil
}

func (r *profiles) DeductCredit(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok || p.Credits <= 0 {
		return false, nil
	}
	p.Credits--
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *profiles) AddCredits(_ context.Context, userID string, credits int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.Credits += credits
	p.UpdatedAt = time.Now()
	return nil
}

type reports Store

func (r *reports) Create(_ context.Context, report *store.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *reports) Get(_ context.Context, userID, reportID string) (*store.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[reportID]
	if !ok || rep.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *reports) ListByUser(_ context.Context, userID string) ([]store.ReportSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.ReportSummary
	for _, rep := range r.reports {
		if rep.UserID != userID {
			continue
		}
		out = append(out, store.ReportSummary{
			ID:                rep.ID,
			TransactionsCount: rep.TransactionsCount,
			TotalIncome:       rep.TotalIncome,
			TotalExpenses:     rep.TotalExpenses,
			HealthScore:       rep.HealthScore,
			CreatedAt:         rep.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *reports) LatestByUser(_ context.Context, userID string) (*store.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *store.Report
	for _, rep := range r.reports {
		if rep.UserID != userID {
			continue
		}
		if latest == nil || rep.CreatedAt.After(latest.CreatedAt) {
			latest = rep
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type transactions Store

func (r *transactions) Create(_ context.Context, tx *store.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	cp := *tx
	r.transactions[tx.ID] = &cp
	return nil
}

func (r *transactions) GetBySessionID(_ context.Context, sessionID string) (*store.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.transactions {
		if tx.ProviderSessionID == sessionID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *transactions) MarkCompleted(_ context.Context, id, providerPaymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.transactions[id]
	if !ok || tx.Status == store.TxStatusCompleted {
		return false, nil
	}
	tx.Status = store.TxStatusCompleted
	tx.ProviderPaymentID = providerPaymentID
	tx.UpdatedAt = time.Now()
	return true, nil
}

type webhookEvents Store

func (r *webhookEvents) IsProcessed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.webhooks[eventID]
	return ok, nil
}

func (r *webhookEvents) MarkProcessed(_ context.Context, event *store.ProcessedWebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	cp := *event
	r.webhooks[event.EventID] = &cp
	return nil
}

type audit Store

func (r *audit) Log(_ context.Context, entry *store.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	cp := *entry
	r.auditLog = append(r.auditLog, &cp)
	return nil
}
