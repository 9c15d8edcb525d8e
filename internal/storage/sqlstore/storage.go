package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage"
)

// Config selects the SQL backend
type Config struct {
	Dialect string
	DSN     string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Storage keeps player records as JSON documents with a version column
// used for conditional updates.
type Storage struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open connects to the database and creates the schema if needed
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	dialect, err := DialectByName(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("empty %s dsn", dialect.Name)
	}
	if dialect == SQLite && !strings.HasPrefix(cfg.DSN, ":memory:") && !strings.HasPrefix(cfg.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 5
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Storage{db: db, dialect: dialect}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	if s.dialect == SQLite {
		for _, p := range sqlitePragmas {
			if _, err := s.db.ExecContext(ctx, p); err != nil {
				return fmt.Errorf("pragma %q: %w", p, err)
			}
		}
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) q(query string) string {
	return s.dialect.Rebind(query)
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
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO players (id, data, version) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, version = excluded.version`),
		string(rec.ID), string(data), rec.Version)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return getPlayer(ctx, s.db, s.q(`SELECT data FROM players WHERE id = ?`), id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPlayer(ctx context.Context, db queryer, query string, id model.PlayerID) (*model.PlayerRecord, error) {
	var data string
	if err := db.QueryRowContext(ctx, query, string(id)).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	var player model.PlayerRecord
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) PlayerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM players WHERE id = ?`), string(id)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PatchPlayer reads, applies and writes inside one transaction. The UPDATE is
// conditioned on the version that was read, so a concurrent commit turns into
// model.ErrConflict.
func (s *Storage) PatchPlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.PlayerRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getPlayer(ctx, tx, s.q(`SELECT data FROM players WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	next, err := patch.Apply(current)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, s.q(`UPDATE players SET data = ?, version = ? WHERE id = ? AND version = ?`),
		string(data), next.Version, string(id), current.Version)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return next, nil
}

// Cooldown operations

func (s *Storage) GetCooldown(ctx context.Context, key string) (time.Time, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT expires_at_ms FROM cooldowns WHERE cooldown_key = ?`), key).Scan(&ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, model.ErrCooldownNotFound
		}
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (s *Storage) SetCooldown(ctx context.Context, key string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO cooldowns (cooldown_key, expires_at_ms) VALUES (?, ?)
		ON CONFLICT (cooldown_key) DO UPDATE SET expires_at_ms = excluded.expires_at_ms`),
		key, expiresAt.UnixMilli())
	return err
}

func (s *Storage) DeleteCooldown(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM cooldowns WHERE cooldown_key = ?`), key)
	return err
}

// ClaimCooldown upserts the expiry only when no row exists or the stored
// one has lapsed, so the row count tells whether this call won.
func (s *Storage) ClaimCooldown(ctx context.Context, key string, now, expiresAt time.Time) (time.Time, bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO cooldowns (cooldown_key, expires_at_ms) VALUES (?, ?)
		ON CONFLICT (cooldown_key) DO UPDATE SET expires_at_ms = excluded.expires_at_ms
		WHERE cooldowns.expires_at_ms <= ?`),
		key, expiresAt.UnixMilli(), now.UnixMilli())
	if err != nil {
		return time.Time{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, false, err
	}
	if n == 1 {
		return expiresAt, true, nil
	}

	current, err := s.GetCooldown(ctx, key)
	if errors.Is(err, model.ErrCooldownNotFound) {
		return time.Time{}, false, model.ErrConflict
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return current, false, nil
}

func (s *Storage) SweepCooldowns(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM cooldowns WHERE expires_at_ms <= ?`), now.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Payment ledger operations

func (s *Storage) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO processed_payments (payment_id, processed_at_ms) VALUES (?, ?)
		ON CONFLICT (payment_id) DO NOTHING`), paymentID, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Storage) ReleasePayment(ctx context.Context, paymentID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM processed_payments WHERE payment_id = ?`), paymentID)
	return err
}
