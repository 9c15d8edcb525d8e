package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpgdash/internal/api/handler"
	"github.com/mcoot/rpgdash/internal/api/middleware"
	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/metrics"
	sharedmw "github.com/mcoot/rpgdash/internal/middleware"
	"github.com/mcoot/rpgdash/internal/services/action"
	"github.com/mcoot/rpgdash/internal/services/payment"
	"github.com/mcoot/rpgdash/internal/services/player"
	"github.com/mcoot/rpgdash/internal/services/shop"
	"github.com/mcoot/rpgdash/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	Clock            clock.Clock
	Metrics          *metrics.Manager
	PlayerService    *player.Service
	ActionController *action.Controller
	ShopService      *shop.Service
	CheckoutService  *payment.CheckoutService
	Reconciler       *payment.Reconciler
	HubManager       *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService, cfg.ActionController, cfg.HubManager, cfg.Clock)
	actionHandler := handler.NewActionHandler(cfg.ActionController)
	shopHandler := handler.NewShopHandler(cfg.ShopService)
	paymentHandler := handler.NewPaymentHandler(cfg.CheckoutService, cfg.Reconciler, cfg.Logger)

	// Create middleware
	compressMiddleware, err := middleware.Compress()
	if err != nil {
		return nil, err
	}
	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	r.Use(sharedmw.RequestID())
	r.Use(sharedmw.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	api := r.PathPrefix("/api/v1").Subrouter()
	gz := func(h http.HandlerFunc) http.Handler { return compressMiddleware(h) }

	// Player record routes
	api.Handle("/players/{id}", gz(playerHandler.Get)).Methods(http.MethodGet)
	api.Handle("/players/{id}", gz(playerHandler.Patch)).Methods(http.MethodPatch)
	api.Handle("/players/{id}/cooldowns", gz(playerHandler.Cooldowns)).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/events", playerHandler.Events).Methods(http.MethodGet)

	// Actions and purchases
	api.Handle("/players/{id}/actions/{kind}", gz(actionHandler.Perform)).Methods(http.MethodPost)
	api.Handle("/players/{id}/purchases", gz(shopHandler.Purchase)).Methods(http.MethodPost)
	api.Handle("/shop/items", gz(shopHandler.Items)).Methods(http.MethodGet)

	// Payments
	api.Handle("/payments/checkout", gz(paymentHandler.Checkout)).Methods(http.MethodPost)
	webhookRecovery := middleware.WebhookRecovery(cfg.Logger, cfg.Metrics)
	api.Handle("/payments/webhook", webhookRecovery(http.HandlerFunc(paymentHandler.Webhook))).Methods(http.MethodPost)

	// Health check and metrics
	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	return r, nil
}
