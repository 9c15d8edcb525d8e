package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcoot/rpgdash/internal/model"
)

// MockProvider is an in-memory payment provider for testing
type MockProvider struct {
	mu sync.Mutex

	// Unconfigured makes Configured return false
	Unconfigured bool

	// Payments maps payment id to the details GetPayment returns
	Payments map[string]*model.PaymentDetails

	// Errors injected into the next calls
	GetPaymentErr error
	PreferenceErr error

	// GetPaymentPanic makes GetPayment panic with this value when non-nil
	GetPaymentPanic any

	Preferences     []model.PreferenceRequest
	GetPaymentCalls int
}

// NewMockProvider creates a configured MockProvider with no payments
func NewMockProvider() *MockProvider {
	return &MockProvider{Payments: make(map[string]*model.PaymentDetails)}
}

// AddPayment registers a payment for later lookup
func (p *MockProvider) AddPayment(details model.PaymentDetails) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Payments[details.ID] = &details
}

func (p *MockProvider) Configured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.Unconfigured
}

func (p *MockProvider) CreatePreference(_ context.Context, req model.PreferenceRequest) (*model.Checkout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PreferenceErr != nil {
		return nil, p.PreferenceErr
	}
	p.Preferences = append(p.Preferences, req)
	id := fmt.Sprintf("pref-%d", len(p.Preferences))
	return &model.Checkout{
		PreferenceID: id,
		CheckoutURL:  "https://checkout.test/" + id,
	}, nil
}

func (p *MockProvider) GetPayment(_ context.Context, paymentID string) (*model.PaymentDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GetPaymentCalls++
	if p.GetPaymentPanic != nil {
		panic(p.GetPaymentPanic)
	}
	if p.GetPaymentErr != nil {
		return nil, p.GetPaymentErr
	}
	details, ok := p.Payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s not found", model.ErrProvider, paymentID)
	}
	c := *details
	return &c, nil
}
