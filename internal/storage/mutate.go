package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcoot/rpgdash/internal/model"
)

// DefaultMaxAttempts bounds read-modify-write retries on version conflicts
const DefaultMaxAttempts = 3

// MutateFunc derives a patch from the freshly read record
type MutateFunc func(current *model.PlayerRecord) (model.PlayerPatch, error)

// Mutator performs versioned read-modify-write cycles against a Storage
type Mutator struct {
	store       Storage
	maxAttempts int
	onConflict  func(id model.PlayerID, attempt int)
}

// MutatorOption configures a Mutator
type MutatorOption func(*Mutator)

// WithMaxAttempts sets how many times a conflicting write is retried
func WithMaxAttempts(n int) MutatorOption {
	return func(m *Mutator) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithConflictHook registers a callback invoked for every version conflict
func WithConflictHook(fn func(id model.PlayerID, attempt int)) MutatorOption {
	return func(m *Mutator) {
		m.onConflict = fn
	}
}

// NewMutator creates a Mutator
func NewMutator(store Storage, opts ...MutatorOption) *Mutator {
	m := &Mutator{store: store, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mutate reads the record, asks fn for a patch, and writes it conditioned on
// the version that was read. On conflict the cycle restarts from a fresh read.
//
// Read errors, errors from fn and patch validation errors are returned
// unchanged. Other write failures are wrapped with model.ErrRemoteWriteFailed.
func (m *Mutator) Mutate(ctx context.Context, id model.PlayerID, fn MutateFunc) (*model.PlayerRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		current, err := m.store.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}

		patch, err := fn(current)
		if err != nil {
			return nil, err
		}
		patch.ExpectedVersion = current.Version
		patch.CheckVersion = true

		updated, err := m.store.PatchPlayer(ctx, id, patch)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrPlayerNotFound) {
			return nil, err
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", model.ErrRemoteWriteFailed, err)
		}
		if m.onConflict != nil {
			m.onConflict(id, attempt)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts: %w", model.ErrRemoteWriteFailed, m.maxAttempts, lastErr)
}
