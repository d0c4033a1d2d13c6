package billing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/logger"
	"github.com/finglow/finglow/internal/store"
)

// EventBillingPaid is the only provider event that mutates state; everything
// else is recorded and ignored.
const EventBillingPaid = "billing.paid"

// Event is a parsed provider webhook payload.
type Event struct {
	ID   string
	Type string
	Data map[string]any
	Raw  json.RawMessage
}

// ParseEvent decodes a provider payload. The provider sends the event id as
// eventId, with id as a fallback on older payloads.
func ParseEvent(body []byte) (*Event, error) {
	var payload struct {
		EventID string         `json:"eventId"`
		ID      string         `json:"id"`
		Event   string         `json:"event"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.New("Invalid payload")
	}

	eventID := payload.EventID
	if eventID == "" {
		eventID = payload.ID
	}
	if eventID == "" || payload.Event == "" || payload.Data == nil {
		return nil, errors.New("Invalid payload")
	}

	return &Event{
		ID:   eventID,
		Type: payload.Event,
		Data: payload.Data,
		Raw:  json.RawMessage(body),
	}, nil
}

// WebhookResult tells the handler what happened; the HTTP response is 200
// either way so the provider stops redelivering.
type WebhookResult struct {
	AlreadyProcessed bool
}

// WebhookProcessor applies provider events exactly once. The idempotency
// ledger is keyed by the provider event id, and the credit grant is guarded
// a second time by the transaction's conditional pending-to-completed
// transition, so a replay between the ledger check and the ledger write
// still cannot double-grant.
type WebhookProcessor struct {
	store  store.Store
	secret string
}

// NewWebhookProcessor creates a processor. An empty secret disables
// signature checking, which is only acceptable in local development.
func NewWebhookProcessor(st store.Store, secret string) *WebhookProcessor {
	return &WebhookProcessor{store: st, secret: secret}
}

// HandleEvent verifies, deduplicates and applies one provider event.
func (p *WebhookProcessor) HandleEvent(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	log := logger.FromContext(ctx)

	if p.secret != "" {
		if subtle.ConstantTimeCompare([]byte(signature), []byte(p.secret)) != 1 {
			return nil, apperr.Authentication("invalid webhook signature")
		}
	}

	event, err := ParseEvent(body)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	log = log.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	processed, err := p.store.WebhookEvents().IsProcessed(ctx, event.ID)
	if err != nil {
		return nil, apperr.Persistence("failed to check idempotency ledger", err)
	}
	if processed {
		log.Info().Msg("webhook event already processed, skipping")
		return &WebhookResult{AlreadyProcessed: true}, nil
	}

	if event.Type == EventBillingPaid {
		if err := p.applyBillingPaid(ctx, event, log); err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("ignoring webhook event type")
	}

	record := &store.ProcessedWebhookEvent{
		EventID:   event.ID,
		EventType: event.Type,
		Provider:  ProviderName,
		Payload:   datatypes.JSON(event.Raw),
	}
	if err := p.store.WebhookEvents().MarkProcessed(ctx, record); err != nil {
		return nil, apperr.Persistence("failed to record webhook event", err)
	}

	return &WebhookResult{}, nil
}

// applyBillingPaid completes the pending transaction for the paid billing
// and grants its credits. A billing with no matching pending transaction is
// logged and skipped, never failed: failing would make the provider redeliver
// an event we can never apply.
func (p *WebhookProcessor) applyBillingPaid(ctx context.Context, event *Event, log zerolog.Logger) error {
	billingID, _ := event.Data["id"].(string)
	if billingID == "" {
		return apperr.Validation("billing.paid event has no billing id")
	}

	tx, err := p.store.Transactions().GetBySessionID(ctx, billingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("billing_id", billingID).Msg("no transaction for paid billing")
			return nil
		}
		return apperr.Persistence("failed to look up transaction", err)
	}

	completed, err := p.store.Transactions().MarkCompleted(ctx, tx.ID, billingID)
	if err != nil {
		return apperr.Persistence("failed to complete transaction", err)
	}
	if !completed {
		log.Info().Str("billing_id", billingID).Msg("transaction already completed, skipping credit grant")
		return nil
	}

	if err := p.store.Profiles().AddCredits(ctx, tx.UserID, tx.Credits); err != nil {
		return apperr.Persistence("failed to add credits", err)
	}

	p.audit(ctx, tx.UserID, map[string]any{
		"provider":      ProviderName,
		"billing_id":    billingID,
		"credits_added": tx.Credits,
	})

	log.Info().
		Str("user_id", tx.UserID).
		Str("billing_id", billingID).
		Int("credits", tx.Credits).
		Msg("credits granted")
	return nil
}

func (p *WebhookProcessor) audit(ctx context.Context, userID string, metadata map[string]any) {
	entry := &store.AuditLog{
		UserID:       userID,
		Action:       "credits_purchased",
		ResourceType: "transaction",
	}
	if payload, err := json.Marshal(metadata); err == nil {
		entry.Metadata = datatypes.JSON(payload)
	}
	if err := p.store.Audit().Log(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("audit write failed")
	}
}
