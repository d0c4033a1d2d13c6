package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Billing is a created AbacatePay billing session.
type Billing struct {
	ID  string
	URL string
}

// BillingCreator creates a billing session at the payment provider.
type BillingCreator interface {
	CreateBilling(ctx context.Context, pkg Package, customerEmail, completionURL string) (*Billing, error)
}

// AbacatePayClient talks to the AbacatePay REST API.
type AbacatePayClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAbacatePayClient creates a client for the given API key and base URL.
func NewAbacatePayClient(apiKey, baseURL string) *AbacatePayClient {
	return &AbacatePayClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type billingProduct struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

type billingCustomer struct {
	Email string `json:"email"`
}

type createBillingRequest struct {
	Frequency     string           `json:"frequency"`
	Methods       []string         `json:"methods"`
	Products      []billingProduct `json:"products"`
	ReturnURL     string           `json:"returnUrl"`
	CompletionURL string           `json:"completionUrl"`
	Customer      billingCustomer  `json:"customer"`
}

type createBillingResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateBilling creates a one-time billing for the package. Prices go over
// the wire in centavos.
func (c *AbacatePayClient) CreateBilling(ctx context.Context, pkg Package, customerEmail, completionURL string) (*Billing, error) {
	creditNoun := "créditos"
	if pkg.Credits == 1 {
		creditNoun = "crédito"
	}

	payload := createBillingRequest{
		Frequency: "ONE_TIME",
		Methods:   []string{"PIX", "CREDIT_CARD"},
		Products: []billingProduct{
			{
				ExternalID:  pkg.Type,
				Name:        "FinGlow - " + pkg.Name,
				Quantity:    1,
				Price:       pkg.PriceCents(),
				Description: fmt.Sprintf("Pacote com %d %s para análise de IA", pkg.Credits, creditNoun),
			},
		},
		ReturnURL:     completionURL,
		CompletionURL: completionURL,
		Customer:      billingCustomer{Email: customerEmail},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("billing.CreateBilling: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/billing/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("billing.CreateBilling: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("billing.CreateBilling: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("billing.CreateBilling: read response: %w", err)
	}

	var parsed createBillingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("billing.CreateBilling: decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
		if msg == "" {
			msg = "failed to create billing"
		}
		return nil, fmt.Errorf("billing.CreateBilling: provider returned %d: %s", resp.StatusCode, msg)
	}

	if parsed.Data.ID == "" || parsed.Data.URL == "" {
		return nil, fmt.Errorf("billing.CreateBilling: invalid response: missing url or id")
	}

	return &Billing{ID: parsed.Data.ID, URL: parsed.Data.URL}, nil
}
