package payment

import (
	"context"

	"github.com/mcoot/rpgdash/internal/model"
)

// Provider is the external payment service
type Provider interface {
	// Configured reports whether credentials are present
	Configured() bool
	CreatePreference(ctx context.Context, req model.PreferenceRequest) (*model.Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (*model.PaymentDetails, error)
}
