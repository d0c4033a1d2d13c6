package billing

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/auth"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store"
)

// CheckoutService creates provider billing sessions and records the pending
// transaction the webhook later completes.
type CheckoutService struct {
	verifier auth.Verifier
	store    store.Store
	provider BillingCreator
}

// NewCheckoutService wires the checkout flow.
func NewCheckoutService(verifier auth.Verifier, st store.Store, provider BillingCreator) *CheckoutService {
	return &CheckoutService{verifier: verifier, store: st, provider: provider}
}

// CheckoutResult is the session the client redirects to.
type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// CreateCheckout authenticates the caller, creates the provider billing and
// stores a pending transaction keyed by the provider's session id.
func (s *CheckoutService) CreateCheckout(ctx context.Context, authHeader, packageType, completionURL string) (*CheckoutResult, error) {
	log := logger.FromContext(ctx)

	identity, err := s.verifier.Verify(ctx, authHeader)
	if err != nil {
		return nil, apperr.Authentication("Invalid or missing authentication token")
	}

	pkg, ok := PackageByType(packageType)
	if !ok {
		return nil, apperr.Validation("Invalid package type. Valid options: single, pack5, pack10")
	}

	billing, err := s.provider.CreateBilling(ctx, pkg, identity.Email, completionURL)
	if err != nil {
		return nil, apperr.Internal("failed to create checkout session", err)
	}

	tx := &store.PaymentTransaction{
		UserID:            identity.UserID,
		PackageType:       pkg.Type,
		Amount:            pkg.PriceFloat(),
		Credits:           pkg.Credits,
		Status:            store.TxStatusPending,
		Provider:          ProviderName,
		ProviderSessionID: billing.ID,
	}
	if err := s.store.Transactions().Create(ctx, tx); err != nil {
		return nil, apperr.Persistence("failed to record transaction", err)
	}

	s.audit(ctx, identity.UserID, tx.ID, map[string]any{
		"provider":     ProviderName,
		"package_type": pkg.Type,
		"amount":       pkg.PriceFloat(),
		"billing_id":   billing.ID,
	})

	log.Info().
		Str("user_id", identity.UserID).
		Str("package_type", pkg.Type).
		Str("billing_id", billing.ID).
		Msg("checkout session created")

	return &CheckoutResult{CheckoutURL: billing.URL, SessionID: billing.ID}, nil
}

func (s *CheckoutService) audit(ctx context.Context, userID, txID string, metadata map[string]any) {
	entry := &store.AuditLog{
		UserID:       userID,
		Action:       "checkout_created",
		ResourceType: "transaction",
		ResourceID:   txID,
	}
	if payload, err := json.Marshal(metadata); err == nil {
		entry.Metadata = datatypes.JSON(payload)
	}
	if err := s.store.Audit().Log(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("audit write failed")
	}
}
