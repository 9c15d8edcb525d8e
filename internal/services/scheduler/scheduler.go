// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/metrics"
)

// DefaultSweepSchedule removes expired cooldowns once a minute
const DefaultSweepSchedule = "@every 1m"

// CooldownSweeper deletes cooldown entries that expired at or before now
type CooldownSweeper interface {
	SweepCooldowns(ctx context.Context, now time.Time) (int, error)
}

// Scheduler wraps a cron runner with the job set used by the server
type Scheduler struct {
	cron    *cron.Cron
	parser  cron.Parser
	clock   clock.Clock
	metrics *metrics.Manager
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Scheduler. Jobs are registered with the Add methods and start running on Start.
func New(clock clock.Clock, metrics *metrics.Manager, logger *slog.Logger) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		parser:  parser,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// AddJob registers fn under a name on the given schedule
func (s *Scheduler) AddJob(name, schedule string, fn func(ctx context.Context) error) error {
	if _, err := s.parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
		}
	})
	return err
}

// AddCooldownSweep registers the expired-cooldown sweep
func (s *Scheduler) AddCooldownSweep(schedule string, sweeper CooldownSweeper) error {
	return s.AddJob("cooldown_sweep", schedule, func(ctx context.Context) error {
		_, err := s.SweepCooldowns(ctx, sweeper)
		return err
	})
}

// SweepCooldowns runs one sweep immediately
func (s *Scheduler) SweepCooldowns(ctx context.Context, sweeper CooldownSweeper) (int, error) {
	removed, err := sweeper.SweepCooldowns(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordCooldownsSwept(removed)
	if removed > 0 {
		s.logger.Debug("expired cooldowns swept", slog.Int("removed", removed))
	}
	return removed, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs, up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
