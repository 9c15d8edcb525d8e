package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL backends
type Dialect struct {
	Name   string
	Driver string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", numbered: true}
)

// DialectByName resolves a configured dialect name
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
}

// Rebind rewrites ? placeholders for the dialect
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		version BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cooldowns (
		cooldown_key TEXT PRIMARY KEY,
		expires_at_ms BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS cooldowns_expiry ON cooldowns (expires_at_ms)`,
	`CREATE TABLE IF NOT EXISTS processed_payments (
		payment_id TEXT PRIMARY KEY,
		processed_at_ms BIGINT NOT NULL
	)`,
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
}
