package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/rpgdash/internal/api/request"
	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/payment"
)

// maxWebhookBody bounds how much of a notification body is read
const maxWebhookBody = 64 << 10

// PaymentHandler handles checkout and provider notification endpoints
type PaymentHandler struct {
	checkout   *payment.CheckoutService
	reconciler *payment.Reconciler
	logger     *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(checkout *payment.CheckoutService, reconciler *payment.Reconciler, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout:   checkout,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Checkout handles POST /api/v1/payments/checkout
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req request.CheckoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	checkout, err := h.checkout.CreateCheckout(r.Context(), model.PlayerID(req.PlayerID), req.Name, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CheckoutResponse{
		CheckoutURL:  checkout.CheckoutURL,
		PreferenceID: checkout.PreferenceID,
	})
}

// Webhook handles POST /api/v1/payments/webhook.
// It always answers 200; failures are reported in the acknowledgement body.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read payment notification", slog.String("error", err.Error()))
	}

	event, parseErr := payment.ParseEvent(body, r.URL.Query())
	if parseErr != nil {
		h.logger.Warn("malformed payment notification", slog.String("error", parseErr.Error()))
		event = model.PaymentEvent{}
	}

	ack := h.reconciler.OnPaymentEvent(r.Context(), event)
	if parseErr != nil {
		ack.Error = parseErr.Error()
	}

	response.JSON(w, http.StatusOK, ack)
}
