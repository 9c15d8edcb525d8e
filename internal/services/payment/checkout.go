package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mcoot/rpgdash/internal/model"
)

// CheckoutConfig holds the fixed parts of every checkout
type CheckoutConfig struct {
	Title           string
	CurrencyID      string
	NotificationURL string
	BackURL         string
}

// DefaultCheckoutConfig returns the defaults used when nothing is configured
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		Title:      "Balance top-up",
		CurrencyID: "BRL",
	}
}

// CheckoutService starts real-money top-ups
type CheckoutService struct {
	provider Provider
	cfg      CheckoutConfig
	logger   *slog.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(provider Provider, cfg CheckoutConfig, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateCheckout asks the provider for a checkout crediting amount to the player
func (s *CheckoutService) CreateCheckout(ctx context.Context, playerID model.PlayerID, displayName string, amount decimal.Decimal) (*model.Checkout, error) {
	if strings.TrimSpace(string(playerID)) == "" {
		return nil, fmt.Errorf("%w: player id is required", model.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount has more than two decimal places", model.ErrValidation)
	}
	if !s.provider.Configured() {
		return nil, fmt.Errorf("%w: payments are disabled", model.ErrConfiguration)
	}

	checkout, err := s.provider.CreatePreference(ctx, model.PreferenceRequest{
		PlayerID:        playerID,
		Title:           s.cfg.Title,
		PayerName:       displayName,
		Amount:          amount,
		CurrencyID:      s.cfg.CurrencyID,
		NotificationURL: s.cfg.NotificationURL,
		BackURL:         s.cfg.BackURL,
	})
	if err != nil {
		s.logger.Error("failed to create checkout",
			slog.String("player_id", string(playerID)),
			slog.String("amount", amount.StringFixed(2)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("checkout created",
		slog.String("player_id", string(playerID)),
		slog.String("preference_id", checkout.PreferenceID),
		slog.String("amount", amount.StringFixed(2)),
	)
	return checkout, nil
}
