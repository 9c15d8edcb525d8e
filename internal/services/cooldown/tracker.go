package cooldown

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
)

// Store persists cooldown expiries by key
type Store interface {
	GetCooldown(ctx context.Context, key string) (time.Time, error)
	SetCooldown(ctx context.Context, key string, expiresAt time.Time) error
	DeleteCooldown(ctx context.Context, key string) error
	ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error)
}

// Tracker decides whether a player's action is ready and records its use.
// Time is always supplied by the caller.
type Tracker struct {
	store  Store
	logger *slog.Logger
}

// NewTracker creates a new cooldown tracker
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// IsReady reports whether the action can be performed at now, and if not,
// how long remains. Entries found expired are evicted.
func (t *Tracker) IsReady(ctx context.Context, playerID model.PlayerID, kind model.ActionKind, now time.Time) (bool, time.Duration, error) {
	remaining, err := t.Remaining(ctx, playerID, kind, now)
	if err != nil {
		return false, 0, err
	}
	return remaining == 0, remaining, nil
}

// Remaining returns the time left on the cooldown, or zero when ready
func (t *Tracker) Remaining(ctx context.Context, playerID model.PlayerID, kind model.ActionKind, now time.Time) (time.Duration, error) {
	key := model.CooldownKey(playerID, kind)
	expiresAt, err := t.store.GetCooldown(ctx, key)
	if errors.Is(err, model.ErrCooldownNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if !expiresAt.After(now) {
		if err := t.store.DeleteCooldown(ctx, key); err != nil {
			t.logger.Warn("failed to evict expired cooldown", "key", key, "error", err)
		}
		return 0, nil
	}
	return expiresAt.Sub(now), nil
}

// MarkUsed starts the cooldown at now and returns its expiry
func (t *Tracker) MarkUsed(ctx context.Context, playerID model.PlayerID, kind model.ActionKind, now time.Time, duration time.Duration) (time.Time, error) {
	expiresAt := now.Add(duration)
	if err := t.store.SetCooldown(ctx, model.CooldownKey(playerID, kind), expiresAt); err != nil {
		return time.Time{}, err
	}
	t.logger.Debug("cooldown started",
		"player_id", playerID,
		"action", kind,
		"expires_at", expiresAt,
	)
	return expiresAt, nil
}

// Claim starts the cooldown at now unless one is still running. The check
// and the write are a single store operation, so of two concurrent callers
// only one claims. A running cooldown fails with *model.CooldownError.
func (t *Tracker) Claim(ctx context.Context, playerID model.PlayerID, kind model.ActionKind, now time.Time, duration time.Duration) (time.Time, error) {
	expiresAt, claimed, err := t.store.ClaimCooldown(ctx, model.CooldownKey(playerID, kind), now, now.Add(duration))
	if err != nil {
		return time.Time{}, err
	}
	if !claimed {
		return expiresAt, &model.CooldownError{Kind: kind, Remaining: expiresAt.Sub(now)}
	}
	t.logger.Debug("cooldown claimed",
		"player_id", playerID,
		"action", kind,
		"expires_at", expiresAt,
	)
	return expiresAt, nil
}

// Release drops a claimed cooldown whose action never ran
func (t *Tracker) Release(ctx context.Context, playerID model.PlayerID, kind model.ActionKind) error {
	return t.store.DeleteCooldown(ctx, model.CooldownKey(playerID, kind))
}

// Active returns the expiry of every action still cooling down at now
func (t *Tracker) Active(ctx context.Context, playerID model.PlayerID, now time.Time) (map[model.ActionKind]time.Time, error) {
	active := make(map[model.ActionKind]time.Time)
	for _, kind := range model.AllActionKinds {
		remaining, err := t.Remaining(ctx, playerID, kind, now)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			active[kind] = now.Add(remaining)
		}
	}
	return active, nil
}
