package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Outcome classifies how a notification was handled
type Outcome string

const (
	OutcomeIgnored       Outcome = "ignored"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeNotApproved   Outcome = "not_approved"
	OutcomeAnomaly       Outcome = "anomaly"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeCredited      Outcome = "credited"
	OutcomeCreditFailed  Outcome = "credit_failed"
)

// Ack is returned to the provider for every notification. Received is always
// true so the provider does not redeliver because of our own failures.
type Ack struct {
	Received  bool    `json:"received"`
	Outcome   Outcome `json:"outcome"`
	PaymentID string  `json:"payment_id,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Ledger remembers which payments have already been credited
type Ledger interface {
	MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error)
	ReleasePayment(ctx context.Context, paymentID string) error
}

// Reconciler credits approved payments to player balances exactly once
type Reconciler struct {
	provider  Provider
	ledger    Ledger
	mutator   *storage.Mutator
	publisher model.PlayerPublisher
	metrics   *metrics.Manager
	logger    *slog.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	provider Provider,
	ledger Ledger,
	mutator *storage.Mutator,
	publisher model.PlayerPublisher,
	metrics *metrics.Manager,
	logger *slog.Logger,
) *Reconciler {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Reconciler{
		provider:  provider,
		ledger:    ledger,
		mutator:   mutator,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// OnPaymentEvent handles one provider notification.
//
// The notification itself is never trusted: the payment is looked up at the
// provider and only an approved payment is credited, to the player named by
// its external reference. The payment id is recorded in the ledger before
// crediting so a redelivered notification is a no-op; the entry is released
// again when the credit could not be applied, letting a later retry succeed.
func (r *Reconciler) OnPaymentEvent(ctx context.Context, event model.PaymentEvent) Ack {
	ack := r.handle(ctx, event)
	ack.Received = true
	ack.PaymentID = event.PaymentID
	r.metrics.RecordPayment(string(ack.Outcome))

	attrs := []any{
		slog.String("payment_id", event.PaymentID),
		slog.String("outcome", string(ack.Outcome)),
	}
	switch ack.Outcome {
	case OutcomeCredited, OutcomeDuplicate, OutcomeIgnored, OutcomeNotApproved:
		r.logger.Info("payment notification handled", attrs...)
	default:
		r.logger.Warn("payment notification not credited", append(attrs, slog.String("error", ack.Error))...)
	}
	return ack
}

func (r *Reconciler) handle(ctx context.Context, event model.PaymentEvent) Ack {
	if event.Type != model.PaymentEventType || event.PaymentID == "" {
		return Ack{Outcome: OutcomeIgnored}
	}

	details, err := r.provider.GetPayment(ctx, event.PaymentID)
	if err != nil {
		return Ack{Outcome: OutcomeProviderError, Error: err.Error()}
	}
	if details.Status != model.PaymentStatusApproved {
		return Ack{Outcome: OutcomeNotApproved}
	}

	playerID := model.PlayerID(details.ExternalReference)
	if playerID == "" {
		return Ack{Outcome: OutcomeAnomaly, Error: "approved payment has no external reference"}
	}
	if !details.TransactionAmount.IsPositive() {
		return Ack{Outcome: OutcomeAnomaly, Error: fmt.Sprintf("approved payment has non-positive amount %s", details.TransactionAmount)}
	}

	fresh, err := r.ledger.MarkPaymentProcessed(ctx, event.PaymentID)
	if err != nil {
		return Ack{Outcome: OutcomeCreditFailed, Error: fmt.Sprintf("ledger unavailable: %v", err)}
	}
	if !fresh {
		return Ack{Outcome: OutcomeDuplicate}
	}

	amount := details.TransactionAmount
	updated, err := r.mutator.Mutate(ctx, playerID, func(current *model.PlayerRecord) (model.PlayerPatch, error) {
		balance := current.MonetaryBalance.Add(amount).Round(2)
		return model.PlayerPatch{MonetaryBalance: &balance}, nil
	})
	if err != nil {
		r.release(ctx, event.PaymentID)
		if errors.Is(err, model.ErrPlayerNotFound) {
			return Ack{Outcome: OutcomeAnomaly, Error: fmt.Sprintf("no player %q for approved payment", playerID)}
		}
		return Ack{Outcome: OutcomeCreditFailed, Error: err.Error()}
	}

	r.publisher.PublishPlayer(ctx, updated, model.SourcePayment)
	r.logger.Info("balance credited",
		slog.String("player_id", string(playerID)),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", updated.MonetaryBalance.StringFixed(2)),
	)
	return Ack{Outcome: OutcomeCredited}
}

func (r *Reconciler) release(ctx context.Context, paymentID string) {
	if err := r.ledger.ReleasePayment(ctx, paymentID); err != nil {
		r.logger.Error("failed to release payment from ledger",
			slog.String("payment_id", paymentID),
			slog.String("error", err.Error()),
		)
	}
}
