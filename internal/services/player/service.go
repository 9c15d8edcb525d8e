package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Service exposes the player record store to API callers
type Service struct {
	store     storage.Storage
	mutator   *storage.Mutator
	publisher model.PlayerPublisher
	logger    *slog.Logger
}

// New creates a new player Service
func New(store storage.Storage, mutator *storage.Mutator, publisher model.PlayerPublisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		store:     store,
		mutator:   mutator,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns the stored record
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return s.store.GetPlayer(ctx, id)
}

// Patch applies a partial update on behalf of an external caller.
//
// A patch carrying an expected version is written once and fails with
// model.ErrConflict if the record moved on. Without one it is merged onto the
// latest record, retrying on conflicts. The monetary balance is only ever
// changed by payment reconciliation.
func (s *Service) Patch(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	if patch.MonetaryBalance != nil {
		return nil, fmt.Errorf("%w: %s is credited by payments only", model.ErrValidation, model.FieldMonetaryBalance)
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: patch has no fields", model.ErrValidation)
	}

	var (
		updated *model.PlayerRecord
		err     error
	)
	if patch.Conditional() {
		updated, err = s.store.PatchPlayer(ctx, id, patch)
		if err != nil && !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrPlayerNotFound) && !errors.Is(err, model.ErrConflict) {
			err = fmt.Errorf("%w: %w", model.ErrRemoteWriteFailed, err)
		}
	} else {
		updated, err = s.mutator.Mutate(ctx, id, func(*model.PlayerRecord) (model.PlayerPatch, error) {
			return patch, nil
		})
	}
	if err != nil {
		s.logger.Warn("player patch rejected",
			slog.String("player_id", string(id)),
			slog.Any("fields", patch.Fields()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.publisher.PublishPlayer(ctx, updated, model.SourcePatch)
	s.logger.Info("player patched",
		slog.String("player_id", string(id)),
		slog.Any("fields", patch.Fields()),
		slog.Int64("version", updated.Version),
	)
	return updated, nil
}
