package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/rpgdash/internal/api"
	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/dependencies/random"
	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/action"
	"github.com/mcoot/rpgdash/internal/services/cooldown"
	"github.com/mcoot/rpgdash/internal/services/payment"
	"github.com/mcoot/rpgdash/internal/services/payment/mercadopago"
	"github.com/mcoot/rpgdash/internal/services/player"
	"github.com/mcoot/rpgdash/internal/services/scheduler"
	"github.com/mcoot/rpgdash/internal/services/shop"
	"github.com/mcoot/rpgdash/internal/sse"
	"github.com/mcoot/rpgdash/internal/storage"
	"github.com/mcoot/rpgdash/internal/storage/memory"
	redisstorage "github.com/mcoot/rpgdash/internal/storage/redis"
	"github.com/mcoot/rpgdash/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// HubCleanupSchedule is how often hubs without subscribers are dropped
const HubCleanupSchedule = "@every 5m"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Mutator *storage.Mutator

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	Provider payment.Provider
	Metrics  *metrics.Manager

	// Services
	PlayerService    *player.Service
	CooldownTracker  *cooldown.Tracker
	ActionController *action.Controller
	ShopService      *shop.Service
	CheckoutService  *payment.CheckoutService
	Reconciler       *payment.Reconciler
	HubManager       *sse.HubManager
	Broadcaster      *sse.Broadcaster
	Scheduler        *scheduler.Scheduler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", "sqlite" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLDSN is the sqlite path or postgres connection string for the SQL backends
	SQLDSN string
	// CatalogPath points at a YAML shop catalog (optional)
	// If empty, the built-in catalog is used
	CatalogPath string
	// Payment holds the provider credentials; an empty access token disables checkouts
	Payment mercadopago.Config
	// Checkout holds the checkout presentation settings
	// Empty title and currency fall back to payment.DefaultCheckoutConfig()
	Checkout payment.CheckoutConfig
	// MaxConflictAttempts bounds read-modify-write retries (default 3)
	MaxConflictAttempts int
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog := shop.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = shop.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
		}
	}

	provider := mercadopago.New(cfg.Payment)
	if !provider.Configured() {
		logger.Warn("payment provider not configured; checkouts are disabled")
	}

	m := metrics.NewManager(metrics.WithNamespace("rpgdash"))

	return newWithDependencies(store, clock.New(), random.New(), provider, catalog, m, cfg, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite, StorageTypePostgres:
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: storageType, DSN: cfg.SQLDSN})
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, sqlite or postgres", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	provider payment.Provider,
	catalog *shop.Catalog,
	m *metrics.Manager,
	cfg Config,
	logger *slog.Logger,
) *App {
	checkoutCfg := cfg.Checkout
	defaults := payment.DefaultCheckoutConfig()
	if checkoutCfg.Title == "" {
		checkoutCfg.Title = defaults.Title
	}
	if checkoutCfg.CurrencyID == "" {
		checkoutCfg.CurrencyID = defaults.CurrencyID
	}

	mutator := storage.NewMutator(store,
		storage.WithMaxAttempts(cfg.MaxConflictAttempts),
		storage.WithConflictHook(func(id model.PlayerID, attempt int) {
			m.RecordStoreConflict()
			logger.Debug("store version conflict",
				slog.String("player_id", string(id)),
				slog.Int("attempt", attempt))
		}),
	)

	hubManager := sse.NewHubManager(m, logger)
	broadcaster := sse.NewBroadcaster(hubManager, clk, logger)

	tracker := cooldown.NewTracker(store, logger)
	playerService := player.New(store, mutator, broadcaster, logger)
	actionController := action.NewController(mutator, tracker, clk, rnd, broadcaster, m, logger)
	shopService := shop.New(mutator, catalog, broadcaster, m, logger)
	checkoutService := payment.NewCheckoutService(provider, checkoutCfg, logger)
	reconciler := payment.NewReconciler(provider, store, mutator, broadcaster, m, logger)

	return &App{
		Storage:          store,
		Mutator:          mutator,
		Clock:            clk,
		Random:           rnd,
		Provider:         provider,
		Metrics:          m,
		PlayerService:    playerService,
		CooldownTracker:  tracker,
		ActionController: actionController,
		ShopService:      shopService,
		CheckoutService:  checkoutService,
		Reconciler:       reconciler,
		HubManager:       hubManager,
		Broadcaster:      broadcaster,
		Scheduler:        scheduler.New(clk, m, logger),
		logger:           logger,
	}
}

// Router builds the HTTP API for the app
func (a *App) Router() (http.Handler, error) {
	return api.NewRouter(api.RouterConfig{
		Logger:           a.logger,
		Clock:            a.Clock,
		Metrics:          a.Metrics,
		PlayerService:    a.PlayerService,
		ActionController: a.ActionController,
		ShopService:      a.ShopService,
		CheckoutService:  a.CheckoutService,
		Reconciler:       a.Reconciler,
		HubManager:       a.HubManager,
	})
}

// ScheduleMaintenance registers the cooldown sweep and SSE hub cleanup jobs.
// The jobs run once the Scheduler is started.
func (a *App) ScheduleMaintenance(sweepSchedule string) error {
	if sweepSchedule == "" {
		sweepSchedule = scheduler.DefaultSweepSchedule
	}
	if err := a.Scheduler.AddCooldownSweep(sweepSchedule, a.Storage); err != nil {
		return err
	}
	return a.Scheduler.AddJob("sse_hub_cleanup", HubCleanupSchedule, func(context.Context) error {
		a.HubManager.CleanupEmptyHubs()
		return nil
	})
}

// Close disconnects SSE subscribers and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	return a.Storage.Close()
}
