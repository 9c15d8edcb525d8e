package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// FlakyStorage wraps a Storage and injects failures into selected operations
type FlakyStorage struct {
	storage.Storage

	mu          sync.Mutex
	PatchErr    error
	GetErr      error
	CooldownErr error
	LedgerErr   error
	PatchCalls  int

	// GetDelay stalls every GetPlayer to widen race windows
	GetDelay time.Duration
}

// Ensure FlakyStorage implements Storage
var _ storage.Storage = (*FlakyStorage)(nil)

// NewFlakyStorage wraps inner
func NewFlakyStorage(inner storage.Storage) *FlakyStorage {
	return &FlakyStorage{Storage: inner}
}

func (f *FlakyStorage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	f.mu.Lock()
	err, delay := f.GetErr, f.GetDelay
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return f.Storage.GetPlayer(ctx, id)
}

func (f *FlakyStorage) PatchPlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	f.mu.Lock()
	f.PatchCalls++
	err := f.PatchErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Storage.PatchPlayer(ctx, id, patch)
}

func (f *FlakyStorage) GetCooldown(ctx context.Context, key string) (time.Time, error) {
	f.mu.Lock()
	err := f.CooldownErr
	f.mu.Unlock()
	if err != nil {
		return time.Time{}, err
	}
	return f.Storage.GetCooldown(ctx, key)
}

func (f *FlakyStorage) ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error) {
	f.mu.Lock()
	err := f.CooldownErr
	f.mu.Unlock()
	if err != nil {
		return time.Time{}, false, err
	}
	return f.Storage.ClaimCooldown(ctx, key, now, expiresAt)
}

func (f *FlakyStorage) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	f.mu.Lock()
	err := f.LedgerErr
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	return f.Storage.MarkPaymentProcessed(ctx, paymentID)
}
