package clock

import "time"

// Clock provides the current time; cooldowns and sweeps read it so tests can pin it
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock at millisecond resolution in UTC, the
// precision cooldown expiries are persisted at.
type SystemClock struct{}

// New creates a new SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time truncated to the millisecond
func (c *SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
