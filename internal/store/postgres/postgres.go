// Package postgres implements the store repositories on Postgres via gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finglow/finglow/internal/store"
)

// Store is the Postgres-backed implementation of store.Store.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: connect: %w", err)
	}

	if err := db.AutoMigrate(
		&store.Profile{},
		&store.Report{},
		&store.PaymentTransaction{},
		&store.ProcessedWebhookEvent{},
		&store.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("postgres.Open: migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("postgres.Close: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) Profiles() store.Profiles           { return &profiles{db: s.db} }
func (s *Store) Reports() store.Reports             { return &reports{db: s.db} }
func (s *Store) Transactions() store.Transactions   { return &transactions{db: s.db} }
func (s *Store) WebhookEvents() store.WebhookEvents { return &webhookEvents{db: s.db} }
func (s *Store) Audit() store.Audit                 { return &audit{db: s.db} }

type profiles struct {
	db *gorm.DB
}

func (r *profiles) Create(ctx context.Context, profile *store.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("profiles.Create: %w", err)
	}
	return nil
}

func (r *profiles) Get(ctx context.Context, userID string) (*store.Profile, error) {
	var profile store.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profiles.Get: %w", err)
	}
	return &profile, nil
}

func (r *profiles) GetCredits(ctx context.Context, userID string) (int, error) {
	profile, err := r.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return profile.Credits, nil
}

// DeductCredit pushes the decrement into a single conditional UPDATE so two
// concurrent analyses cannot both spend the last credit.
func (r *profiles) DeductCredit(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&store.Profile{}).
		Where("id = ? AND credits > 0", userID).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("profiles.DeductCredit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *profiles) AddCredits(ctx context.Context, userID string, credits int) error {
	res := r.db.WithContext(ctx).
		Model(&store.Profile{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", credits))
	if res.Error != nil {
		return fmt.Errorf("profiles.AddCredits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type reports struct {
	db *gorm.DB
}

func (r *reports) Create(ctx context.Context, report *store.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("reports.Create: %w", err)
	}
	return nil
}

func (r *reports) Get(ctx context.Context, userID, reportID string) (*store.Report, error) {
	var report store.Report
	err := r.db.WithContext(ctx).First(&report, "id = ? AND user_id = ?", reportID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reports.Get: %w", err)
	}
	return &report, nil
}

func (r *reports) ListByUser(ctx context.Context, userID string) ([]store.ReportSummary, error) {
	var summaries []store.ReportSummary
	err := r.db.WithContext(ctx).
		Model(&store.Report{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("reports.ListByUser: %w", err)
	}
	return summaries, nil
}

func (r *reports) LatestByUser(ctx context.Context, userID string) (*store.Report, error) {
	var report store.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reports.LatestByUser: %w", err)
	}
	return &report, nil
}

type transactions struct {
	db *gorm.DB
}

func (r *transactions) Create(ctx context.Context, tx *store.PaymentTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("transactions.Create: %w", err)
	}
	return nil
}

func (r *transactions) GetBySessionID(ctx context.Context, sessionID string) (*store.PaymentTransaction, error) {
	var tx store.PaymentTransaction
	err := r.db.WithContext(ctx).First(&tx, "provider_session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transactions.GetBySessionID: %w", err)
	}
	return &tx, nil
}

// MarkCompleted is conditional on the current status so a replayed webhook
// cannot complete the same purchase twice.
func (r *transactions) MarkCompleted(ctx context.Context, id, providerPaymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&store.PaymentTransaction{}).
		Where("id = ? AND status <> ?", id, store.TxStatusCompleted).
		Updates(map[string]any{
			"status":              store.TxStatusCompleted,
			"provider_payment_id": providerPaymentID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("transactions.MarkCompleted: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

type webhookEvents struct {
	db *gorm.DB
}

func (r *webhookEvents) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&store.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("webhookEvents.IsProcessed: %w", err)
	}
	return count > 0, nil
}

func (r *webhookEvents) MarkProcessed(ctx context.Context, event *store.ProcessedWebhookEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("webhookEvents.MarkProcessed: %w", err)
	}
	return nil
}

type audit struct {
	db *gorm.DB
}

func (r *audit) Log(ctx context.Context, entry *store.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("audit.Log: %w", err)
	}
	return nil
}
