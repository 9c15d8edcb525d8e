package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const cooldownKeyPrefix = "cooldown_"

// CooldownKey returns the storage key for a player's action cooldown
func CooldownKey(playerID PlayerID, kind ActionKind) string {
	return fmt.Sprintf("%s%s_%s", cooldownKeyPrefix, kind, playerID)
}

// IsCooldownKey reports whether key was produced by CooldownKey
func IsCooldownKey(key string) bool {
	return strings.HasPrefix(key, cooldownKeyPrefix)
}

// FormatExpiry encodes a cooldown expiry as epoch milliseconds
func FormatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseExpiry decodes an epoch-millisecond expiry
func ParseExpiry(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cooldown expiry %q: %w", s, err)
	}
	return time.UnixMilli(ms), nil
}
