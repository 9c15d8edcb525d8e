package model

import (
	"errors"
	"fmt"
	"time"
)

// Common errors used across the application
var (
	// Input errors
	ErrValidation = errors.New("validation failed")

	// Player errors
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Shop errors
	ErrItemNotFound = errors.New("item not found")

	// Cooldown errors
	ErrCooldownActive   = errors.New("cooldown active")
	ErrCooldownNotFound = errors.New("cooldown not found")

	// Persistence errors
	ErrConflict          = errors.New("record version conflict")
	ErrRemoteWriteFailed = errors.New("remote write failed")

	// Payment errors
	ErrConfiguration = errors.New("payment provider not configured")
	ErrProvider      = errors.New("payment provider error")
)

// CooldownError reports an action that is still cooling down
type CooldownError struct {
	Kind      ActionKind
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is cooling down for another %s", e.Kind, e.Remaining.Round(time.Second))
}

// Is lets errors.Is(err, ErrCooldownActive) match
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}
