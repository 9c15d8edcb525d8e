package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	players   map[model.PlayerID]*model.PlayerRecord
	cooldowns map[string]time.Time
	payments  map[string]time.Time
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:   make(map[model.PlayerID]*model.PlayerRecord),
		cooldowns: make(map[string]time.Time),
		payments:  make(map[string]time.Time),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.PlayerRecord) error {
	if err := player.Validate(); err != nil {
		return err
	}
	rec := player.Clone()
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[rec.ID] = rec
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) PlayerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[id]
	return ok, nil
}

func (s *Storage) PatchPlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	next, err := patch.Apply(current)
	if err != nil {
		return nil, err
	}
	s.players[id] = next
	return next.Clone(), nil
}

// Cooldown operations

func (s *Storage) GetCooldown(ctx context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.cooldowns[key]
	if !ok {
		return time.Time{}, model.ErrCooldownNotFound
	}
	return expiresAt, nil
}

func (s *Storage) SetCooldown(ctx context.Context, key string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[key] = expiresAt
	return nil
}

func (s *Storage) DeleteCooldown(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cooldowns, key)
	return nil
}

func (s *Storage) ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.cooldowns[key]; ok && current.After(now) {
		return current, false, nil
	}
	s.cooldowns[key] = expiresAt
	return expiresAt, true, nil
}

func (s *Storage) SweepCooldowns(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, expiresAt := range s.cooldowns {
		if !expiresAt.After(now) {
			delete(s.cooldowns, key)
			removed++
		}
	}
	return removed, nil
}

// Payment ledger operations

func (s *Storage) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.payments[paymentID]; seen {
		return false, nil
	}
	s.payments[paymentID] = time.Now()
	return true, nil
}

func (s *Storage) ReleasePayment(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, paymentID)
	return nil
}
