package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/cooldown"
)

// FileStore keeps cooldown expiries in a small JSON file so the CLI can
// refuse an action locally without a round trip. The server stays the
// authority; the file is refreshed from every response that reports an expiry.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// Ensure FileStore can back a cooldown tracker
var _ cooldown.Store = (*FileStore)(nil)

// NewFileStore creates a FileStore at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) GetCooldown(_ context.Context, key string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := entries[key]
	if !ok {
		return time.Time{}, model.ErrCooldownNotFound
	}
	return model.ParseExpiry(raw)
}

func (f *FileStore) SetCooldown(_ context.Context, key string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return err
	}
	entries[key] = model.FormatExpiry(expiresAt)
	return f.write(entries)
}

func (f *FileStore) DeleteCooldown(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.write(entries)
}

func (f *FileStore) ClaimCooldown(_ context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return time.Time{}, false, err
	}
	if raw, ok := entries[key]; ok {
		if current, err := model.ParseExpiry(raw); err == nil && current.After(now) {
			return current, false, nil
		}
	}
	entries[key] = model.FormatExpiry(expiresAt)
	if err := f.write(entries); err != nil {
		return time.Time{}, false, err
	}
	return expiresAt, true, nil
}

func (f *FileStore) read() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		// corrupt cache is treated as empty
		return make(map[string]string), nil
	}
	return entries, nil
}

func (f *FileStore) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
