package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.PlayerRecord) error {
	if err := player.Validate(); err != nil {
		return err
	}
	rec := player.Clone()
	if rec.Version == 0 {
		rec.Version = 1
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(rec.ID), data, 0).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return decodePlayer(data)
}

func (s *Storage) PlayerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	n, err := s.client.Exists(ctx, playerKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PatchPlayer applies the patch inside a WATCH/MULTI transaction so a
// concurrent writer makes the commit fail instead of being overwritten.
func (s *Storage) PatchPlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	key := playerKey(id)
	var updated *model.PlayerRecord

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}
		current, err := decodePlayer(data)
		if err != nil {
			return err
		}

		next, err := patch.Apply(current)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, model.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func decodePlayer(data []byte) (*model.PlayerRecord, error) {
	var player model.PlayerRecord
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Cooldown operations

func (s *Storage) GetCooldown(ctx context.Context, key string) (time.Time, error) {
	value, err := s.client.Get(ctx, cooldownKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, model.ErrCooldownNotFound
		}
		return time.Time{}, err
	}
	return model.ParseExpiry(value)
}

func (s *Storage) SetCooldown(ctx context.Context, key string, expiresAt time.Time) error {
	return s.client.Set(ctx, cooldownKey(key), model.FormatExpiry(expiresAt), s.cfg.CooldownRetention).Err()
}

func (s *Storage) DeleteCooldown(ctx context.Context, key string) error {
	return s.client.Del(ctx, cooldownKey(key)).Err()
}

// claimAttempts bounds retries of a cooldown claim lost to a concurrent writer
const claimAttempts = 3

// ClaimCooldown reads and writes the key inside a WATCH/MULTI transaction.
// A commit lost to a concurrent writer is retried so the winner's expiry is
// read back.
func (s *Storage) ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error) {
	k := cooldownKey(key)
	for attempt := 0; attempt < claimAttempts; attempt++ {
		current, claimed := expiresAt, false
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			value, err := tx.Get(ctx, k).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				if existing, perr := model.ParseExpiry(value); perr == nil && existing.After(now) {
					current = existing
					return nil
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, k, model.FormatExpiry(expiresAt), s.cfg.CooldownRetention)
				return nil
			})
			if err != nil {
				return err
			}
			claimed = true
			return nil
		}, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return time.Time{}, false, err
		}
		return current, claimed, nil
	}
	return time.Time{}, false, model.ErrConflict
}

// SweepCooldowns scans every cooldown key and deletes those that have expired
func (s *Storage) SweepCooldowns(ctx context.Context, now time.Time) (int, error) {
	var expired []string
	iter := s.client.Scan(ctx, 0, cooldownPattern(), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return 0, err
		}
		expiresAt, err := model.ParseExpiry(value)
		if err != nil || !expiresAt.After(now) {
			expired = append(expired, key)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	removed, err := s.client.Del(ctx, expired...).Result()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// Payment ledger operations

func (s *Storage) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	return s.client.SetNX(ctx, paymentKey(paymentID), time.Now().UTC().Format(time.RFC3339), s.cfg.PaymentLedgerTTL).Result()
}

func (s *Storage) ReleasePayment(ctx context.Context, paymentID string) error {
	return s.client.Del(ctx, paymentKey(paymentID)).Err()
}
