package model

import "github.com/shopspring/decimal"

// Payment notification types and statuses used by the provider
const (
	PaymentEventType      = "payment"
	PaymentStatusApproved = "approved"
)

// PaymentEvent is a provider notification that a payment changed state
type PaymentEvent struct {
	Type      string
	PaymentID string
}

// PaymentDetails is the provider's authoritative view of a payment
type PaymentDetails struct {
	ID                string
	Status            string
	ExternalReference string
	TransactionAmount decimal.Decimal
}

// PreferenceRequest describes a checkout to create at the provider
type PreferenceRequest struct {
	PlayerID        PlayerID
	Title           string
	PayerName       string
	Amount          decimal.Decimal
	CurrencyID      string
	NotificationURL string
	BackURL         string
}

// Checkout is a created provider checkout session
type Checkout struct {
	PreferenceID string
	CheckoutURL  string
}
