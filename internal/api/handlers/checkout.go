package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finglow/finglow/internal/api/middleware"
	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/billing"
	"github.com/finglow/finglow/internal/logger"
)

// CheckoutCreator creates a payment session for a credit package.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, authHeader, packageType, completionURL string) (*billing.CheckoutResult, error)
}

// CheckoutHandler handles POST /api/create-checkout.
type CheckoutHandler struct {
	service CheckoutCreator
}

// NewCheckoutHandler creates the checkout handler.
func NewCheckoutHandler(service CheckoutCreator) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type checkoutRequest struct {
	PackageType string `json:"package_type"`
	SuccessURL  string `json:"success_url,omitempty"`
}

// CreateCheckout decodes the package choice and returns the provider's
// checkout URL.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteAppError(w, apperr.Validation("Invalid request body"))
		return
	}

	completionURL := req.SuccessURL
	if completionURL == "" {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "http://localhost:5173"
		}
		completionURL = origin + "/#/dashboard?payment=success"
	}

	result, err := h.service.CreateCheckout(r.Context(), r.Header.Get("Authorization"), req.PackageType, completionURL)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("checkout request failed")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"checkout_url": result.CheckoutURL,
		"session_id":   result.SessionID,
	})
}
