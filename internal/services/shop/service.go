package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Outcomes recorded for each purchase attempt
const (
	OutcomePurchased         = "purchased"
	OutcomeInvalid           = "invalid"
	OutcomeUnknownItem       = "unknown_item"
	OutcomeUnknownPlayer     = "unknown_player"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomePersistenceFailed = "persistence_failed"
)

// Service sells catalog items for in-game gold
type Service struct {
	mutator   *storage.Mutator
	catalog   *Catalog
	publisher model.PlayerPublisher
	metrics   *metrics.Manager
	logger    *slog.Logger
}

// New creates a new shop Service
func New(mutator *storage.Mutator, catalog *Catalog, publisher model.PlayerPublisher, metrics *metrics.Manager, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		mutator:   mutator,
		catalog:   catalog,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Catalog returns the price list
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Purchase buys one unit of item for the player at the catalog price.
//
// clientPrice is what the caller believed the price to be; it is only
// compared for logging. Gold is debited and the item added in a single
// versioned write, so the record never holds one change without the other.
func (s *Service) Purchase(ctx context.Context, playerID model.PlayerID, item string, clientPrice *int64) (*model.PlayerRecord, error) {
	if playerID == "" || NormalizeItemName(item) == "" {
		s.metrics.RecordPurchase(OutcomeInvalid)
		return nil, fmt.Errorf("%w: player id and item are required", model.ErrValidation)
	}

	// The catalog is consulted after the read so an unknown player is
	// reported before an unknown item.
	var entry model.CatalogEntry
	updated, err := s.mutator.Mutate(ctx, playerID, func(current *model.PlayerRecord) (model.PlayerPatch, error) {
		found, ok := s.catalog.Lookup(item)
		if !ok {
			return model.PlayerPatch{}, fmt.Errorf("%w: %q", model.ErrItemNotFound, item)
		}
		entry = found
		if clientPrice != nil && *clientPrice != entry.Price {
			s.logger.Debug("client price differs from catalog",
				slog.String("player_id", string(playerID)),
				slog.String("item", entry.Name),
				slog.Int64("client_price", *clientPrice),
				slog.Int64("catalog_price", entry.Price),
			)
		}
		if current.Gold < entry.Price {
			return model.PlayerPatch{}, fmt.Errorf("%w: %s costs %d, player has %d", model.ErrInsufficientFunds, entry.Name, entry.Price, current.Gold)
		}
		gold := current.Gold - entry.Price
		inventory := maps.Clone(current.Inventory)
		if inventory == nil {
			inventory = make(map[string]int64)
		}
		inventory[entry.Name]++
		return model.PlayerPatch{Gold: &gold, Inventory: inventory}, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPlayerNotFound):
			s.metrics.RecordPurchase(OutcomeUnknownPlayer)
		case errors.Is(err, model.ErrItemNotFound):
			s.metrics.RecordPurchase(OutcomeUnknownItem)
		case errors.Is(err, model.ErrInsufficientFunds):
			s.metrics.RecordPurchase(OutcomeInsufficientFunds)
		default:
			s.metrics.RecordPurchase(OutcomePersistenceFailed)
			s.logger.Error("failed to persist purchase",
				slog.String("player_id", string(playerID)),
				slog.String("item", item),
				slog.String("error", err.Error()),
			)
			if !errors.Is(err, model.ErrRemoteWriteFailed) {
				err = fmt.Errorf("%w: %w", model.ErrRemoteWriteFailed, err)
			}
		}
		return nil, err
	}

	s.metrics.RecordPurchase(OutcomePurchased)
	s.publisher.PublishPlayer(ctx, updated, model.SourcePurchase)
	s.logger.Info("item purchased",
		slog.String("player_id", string(playerID)),
		slog.String("item", entry.Name),
		slog.Int64("price", entry.Price),
		slog.Int64("gold_left", updated.Gold),
	)
	return updated, nil
}
