package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rpgdash/internal/api/apierr"
	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/middleware"
	"github.com/mcoot/rpgdash/internal/services/payment"
)

// Recovery answers a panicking request with a JSON INTERNAL_ERROR and counts it
func Recovery(logger *slog.Logger, m *metrics.Manager) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		m.RecordPanic(routeLabel(r))
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// WebhookRecovery keeps the payment notification contract on panic: the
// provider still gets a 200 acknowledgement, marked as a failed credit.
func WebhookRecovery(logger *slog.Logger, m *metrics.Manager) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		m.RecordPanic(routeLabel(r))
		response.JSON(w, http.StatusOK, payment.Ack{
			Received: true,
			Outcome:  payment.OutcomeCreditFailed,
			Error:    "internal error while processing notification",
		})
	})
}
