package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/dependencies/random"
	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/cooldown"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Outcomes recorded for each attempt
const (
	OutcomeSuccess    = "success"
	OutcomeUnsaved    = "unsaved"
	OutcomeCooldown   = "cooldown"
	OutcomeRejected   = "rejected"
	OutcomeStoreError = "store_error"
)

// Result describes a performed action
type Result struct {
	Kind              model.ActionKind
	Reward            Reward
	Player            *model.PlayerRecord
	CooldownExpiresAt time.Time

	// Saved is false when the reward could not be persisted; Player then holds
	// the locally computed record and Warning explains what happened.
	Saved   bool
	Warning string
}

// Controller runs the cooldown-gated action flow
type Controller struct {
	mutator   *storage.Mutator
	tracker   *cooldown.Tracker
	clock     clock.Clock
	random    random.Random
	publisher model.PlayerPublisher
	metrics   *metrics.Manager
	logger    *slog.Logger
}

// NewController creates a new action Controller
func NewController(
	mutator *storage.Mutator,
	tracker *cooldown.Tracker,
	clock clock.Clock,
	random random.Random,
	publisher model.PlayerPublisher,
	metrics *metrics.Manager,
	logger *slog.Logger,
) *Controller {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Controller{
		mutator:   mutator,
		tracker:   tracker,
		clock:     clock,
		random:    random,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Perform resolves the action for the player if its cooldown has elapsed.
//
// The reward is applied to the freshly read record and written with a
// version check. The cooldown is claimed atomically before the action
// resolves and stays charged even if that write fails; in that case the
// result carries the unsaved record and a warning instead of an error. A
// claim for a missing player or an unreadable record is released.
func (c *Controller) Perform(ctx context.Context, playerID model.PlayerID, kind model.ActionKind) (*Result, error) {
	if playerID == "" {
		c.metrics.RecordAction(string(kind), OutcomeRejected)
		return nil, fmt.Errorf("%w: player id is required", model.ErrValidation)
	}
	rule, err := RuleFor(kind)
	if err != nil {
		c.metrics.RecordAction(string(kind), OutcomeRejected)
		return nil, err
	}

	now := c.clock.Now()
	expiresAt, err := c.tracker.Claim(ctx, playerID, kind, now, rule.Cooldown)
	if errors.Is(err, model.ErrCooldownActive) {
		c.metrics.RecordAction(string(kind), OutcomeCooldown)
		return nil, err
	}
	if err != nil {
		c.metrics.RecordAction(string(kind), OutcomeStoreError)
		return nil, err
	}

	reward, err := Resolve(kind, c.random)
	if err != nil {
		c.release(ctx, playerID, kind)
		return nil, err
	}

	var optimistic *model.PlayerRecord
	saved, err := c.mutator.Mutate(ctx, playerID, func(current *model.PlayerRecord) (model.PlayerPatch, error) {
		gold := current.Gold + reward.Gold
		xp := current.ExperienceValue() + reward.XP

		optimistic = current.Clone()
		optimistic.Gold = gold
		optimistic.Experience = &xp

		return model.PlayerPatch{Gold: &gold, Experience: &xp}, nil
	})

	// The claimed cooldown stays charged when only the write failed
	result := &Result{Kind: kind, Reward: reward, CooldownExpiresAt: expiresAt}
	switch {
	case err == nil:
		result.Player = saved
		result.Saved = true
	case errors.Is(err, model.ErrRemoteWriteFailed) && optimistic != nil:
		result.Player = optimistic
		result.Warning = "progress could not be saved; the reward will be lost on reload"
		c.logger.Warn("failed to persist action reward",
			slog.String("player_id", string(playerID)),
			slog.String("action", string(kind)),
			slog.String("error", err.Error()),
		)
	default:
		c.release(ctx, playerID, kind)
		c.metrics.RecordAction(string(kind), OutcomeStoreError)
		return nil, err
	}

	if result.Saved {
		c.metrics.RecordAction(string(kind), OutcomeSuccess)
		c.publisher.PublishPlayer(ctx, result.Player, model.SourceAction)
	} else {
		c.metrics.RecordAction(string(kind), OutcomeUnsaved)
	}

	c.logger.Info("action performed",
		slog.String("player_id", string(playerID)),
		slog.String("action", string(kind)),
		slog.Int64("gold", reward.Gold),
		slog.Int64("xp", reward.XP),
		slog.Bool("saved", result.Saved),
	)

	return result, nil
}

// release frees a cooldown claimed for an action that never reached the store
func (c *Controller) release(ctx context.Context, playerID model.PlayerID, kind model.ActionKind) {
	if err := c.tracker.Release(ctx, playerID, kind); err != nil {
		c.logger.Error("failed to release cooldown",
			slog.String("player_id", string(playerID)),
			slog.String("action", string(kind)),
			slog.String("error", err.Error()),
		)
	}
}

// Cooldowns lists the actions still cooling down for the player
func (c *Controller) Cooldowns(ctx context.Context, playerID model.PlayerID) (map[model.ActionKind]time.Time, error) {
	return c.tracker.Active(ctx, playerID, c.clock.Now())
}
