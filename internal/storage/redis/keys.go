package redis

import (
	"fmt"

	"github.com/mcoot/rpgdash/internal/model"
)

// Key prefix for all dashboard data
const keyPrefix = "rpgdash"

// playerKey returns the Redis key for a PlayerRecord
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// cooldownKey namespaces a cooldown key produced by model.CooldownKey
func cooldownKey(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}

// cooldownPattern matches every cooldown key
func cooldownPattern() string {
	return fmt.Sprintf("%s:cooldown_*", keyPrefix)
}

// paymentKey returns the Redis key marking a payment as processed
func paymentKey(paymentID string) string {
	return fmt.Sprintf("%s:payment:%s", keyPrefix, paymentID)
}
