package storage

import (
	"context"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player record operations
	SavePlayer(ctx context.Context, player *model.PlayerRecord) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	PlayerExists(ctx context.Context, id model.PlayerID) (bool, error)

	// PatchPlayer applies a partial update and returns the stored result.
	// A patch with a stale ExpectedVersion fails with model.ErrConflict.
	PatchPlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error)

	// Cooldown operations, keyed by model.CooldownKey
	GetCooldown(ctx context.Context, key string) (time.Time, error)
	SetCooldown(ctx context.Context, key string, expiresAt time.Time) error
	DeleteCooldown(ctx context.Context, key string) error
	// ClaimCooldown atomically stores expiresAt unless an entry still in
	// force at now exists. It returns the expiry in force and whether this
	// call set it.
	ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error)
	SweepCooldowns(ctx context.Context, now time.Time) (int, error)

	// Payment ledger operations.
	// MarkPaymentProcessed returns false when the payment was already recorded.
	MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error)
	ReleasePayment(ctx context.Context, paymentID string) error

	Close() error
}
