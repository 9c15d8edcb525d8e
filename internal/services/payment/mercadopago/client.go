// Package mercadopago is a minimal client for the checkout and payment
// lookup endpoints of a Mercado Pago compatible provider.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcoot/rpgdash/internal/model"
)

// DefaultBaseURL is the public Mercado Pago API
const DefaultBaseURL = "https://api.mercadopago.com"

// Config holds provider credentials and endpoints
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// DefaultConfig returns a config pointing at the public API with no credentials
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// Client talks to the provider over HTTPS with a bearer token
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// New creates a new provider client
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an access token was supplied
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

type preferenceItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"`
	CurrencyID string      `json:"currency_id,omitempty"`
}

type preferencePayer struct {
	Name string `json:"name,omitempty"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceBody struct {
	Items             []preferenceItem `json:"items"`
	Payer             *preferencePayer `json:"payer,omitempty"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	BackURLs          *backURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// CreatePreference creates a checkout for a single top-up item. The player id
// is sent as the external reference so the payment can be credited later.
func (c *Client) CreatePreference(ctx context.Context, req model.PreferenceRequest) (*model.Checkout, error) {
	body := preferenceBody{
		Items: []preferenceItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  json.Number(req.Amount.StringFixed(2)),
			CurrencyID: req.CurrencyID,
		}},
		ExternalReference: string(req.PlayerID),
		NotificationURL:   req.NotificationURL,
	}
	if req.PayerName != "" {
		body.Payer = &preferencePayer{Name: req.PayerName}
	}
	if req.BackURL != "" {
		body.BackURLs = &backURLs{Success: req.BackURL, Failure: req.BackURL, Pending: req.BackURL}
		body.AutoReturn = "approved"
	}

	var resp preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}

	checkoutURL := resp.InitPoint
	if checkoutURL == "" {
		checkoutURL = resp.SandboxInitPoint
	}
	if resp.ID == "" || checkoutURL == "" {
		return nil, fmt.Errorf("%w: preference response missing id or checkout url", model.ErrProvider)
	}
	return &model.Checkout{PreferenceID: resp.ID, CheckoutURL: checkoutURL}, nil
}

type paymentResponse struct {
	ID                json.RawMessage `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
}

// GetPayment fetches the authoritative state of a payment
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &resp); err != nil {
		return nil, err
	}
	id := strings.Trim(string(resp.ID), `"`)
	if id == "" || id == "null" {
		id = paymentID
	}
	return &model.PaymentDetails{
		ID:                id,
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: missing access token", model.ErrConfiguration)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrProvider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", model.ErrProvider, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%w: %s %s: %d %s", model.ErrProvider, method, path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%w: %s %s: status %d", model.ErrProvider, method, path, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: failed to parse response: %w", model.ErrProvider, err)
		}
	}
	return nil
}
