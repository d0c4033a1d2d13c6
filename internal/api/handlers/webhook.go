package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/finglow/finglow/internal/api/middleware"
	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/billing"
	"github.com/finglow/finglow/internal/logger"
)

// EventProcessor applies one provider webhook event.
type EventProcessor interface {
	HandleEvent(ctx context.Context, body []byte, signature string) (*billing.WebhookResult, error)
}

// WebhookHandler handles POST /api/webhook.
type WebhookHandler struct {
	processor EventProcessor
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleWebhook applies the event and acknowledges with 200 once the event
// is durably recorded, so the provider stops redelivering.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		middleware.WriteAppError(w, apperr.Validation("Invalid payload"))
		return
	}

	signature := r.Header.Get("X-Abacatepay-Signature")
	if signature == "" {
		signature = r.Header.Get("X-Webhook-Signature")
	}

	result, err := h.processor.HandleEvent(r.Context(), body, signature)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("webhook processing failed")
		middleware.WriteAppError(w, err)
		return
	}

	resp := map[string]any{"received": true}
	if result.AlreadyProcessed {
		resp["message"] = "Already processed"
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
