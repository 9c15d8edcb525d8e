package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/storage/memory"
	"github.com/mcoot/rpgdash/internal/testutil"
)

type TrackerSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Storage
	tracker *Tracker
	now     time.Time
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.tracker = NewTracker(s.store, testutil.NopLogger())
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *TrackerSuite) TestReadyWhenNeverUsed() {
	ready, remaining, err := s.tracker.IsReady(s.ctx, "p1", model.ActionWork, s.now)
	s.Require().NoError(err)
	s.True(ready)
	s.Zero(remaining)
}

func (s *TrackerSuite) TestNotReadyWithinCooldown() {
	_, err := s.tracker.MarkUsed(s.ctx, "p1", model.ActionWork, s.now, 60*time.Second)
	s.Require().NoError(err)

	ready, remaining, err := s.tracker.IsReady(s.ctx, "p1", model.ActionWork, s.now.Add(20*time.Second))
	s.Require().NoError(err)
	s.False(ready)
	s.Equal(40*time.Second, remaining)
}

func (s *TrackerSuite) TestReadyExactlyAtExpiryAndEvicts() {
	expiresAt, err := s.tracker.MarkUsed(s.ctx, "p1", model.ActionFish, s.now, 45*time.Second)
	s.Require().NoError(err)
	s.Equal(s.now.Add(45*time.Second), expiresAt)

	ready, _, err := s.tracker.IsReady(s.ctx, "p1", model.ActionFish, expiresAt)
	s.Require().NoError(err)
	s.True(ready)

	_, err = s.store.GetCooldown(s.ctx, model.CooldownKey("p1", model.ActionFish))
	s.ErrorIs(err, model.ErrCooldownNotFound)
}

func (s *TrackerSuite) TestCooldownsAreIndependentPerActionAndPlayer() {
	_, err := s.tracker.MarkUsed(s.ctx, "p1", model.ActionWork, s.now, time.Minute)
	s.Require().NoError(err)

	ready, _, err := s.tracker.IsReady(s.ctx, "p1", model.ActionFish, s.now)
	s.Require().NoError(err)
	s.True(ready)

	ready, _, err = s.tracker.IsReady(s.ctx, "p2", model.ActionWork, s.now)
	s.Require().NoError(err)
	s.True(ready)
}

func (s *TrackerSuite) TestMarkUsedOverwrites() {
	_, err := s.tracker.MarkUsed(s.ctx, "p1", model.ActionSleep, s.now, time.Minute)
	s.Require().NoError(err)
	_, err = s.tracker.MarkUsed(s.ctx, "p1", model.ActionSleep, s.now, 10*time.Second)
	s.Require().NoError(err)

	remaining, err := s.tracker.Remaining(s.ctx, "p1", model.ActionSleep, s.now)
	s.Require().NoError(err)
	s.Equal(10*time.Second, remaining)
}

func (s *TrackerSuite) TestActive() {
	_, err := s.tracker.MarkUsed(s.ctx, "p1", model.ActionTrain, s.now, 90*time.Second)
	s.Require().NoError(err)
	_, err = s.tracker.MarkUsed(s.ctx, "p1", model.ActionWork, s.now.Add(-2*time.Minute), time.Minute)
	s.Require().NoError(err)

	active, err := s.tracker.Active(s.ctx, "p1", s.now)
	s.Require().NoError(err)
	s.Equal(map[model.ActionKind]time.Time{model.ActionTrain: s.now.Add(90 * time.Second)}, active)
}

func (s *TrackerSuite) TestClaimRefusesWhileCoolingDown() {
	expiresAt, err := s.tracker.Claim(s.ctx, "p1", model.ActionWork, s.now, time.Minute)
	s.Require().NoError(err)
	s.Equal(s.now.Add(time.Minute), expiresAt)

	_, err = s.tracker.Claim(s.ctx, "p1", model.ActionWork, s.now.Add(15*time.Second), time.Minute)
	s.ErrorIs(err, model.ErrCooldownActive)
	var cd *model.CooldownError
	s.Require().ErrorAs(err, &cd)
	s.Equal(45*time.Second, cd.Remaining)

	_, err = s.tracker.Claim(s.ctx, "p1", model.ActionWork, s.now.Add(time.Minute), time.Minute)
	s.NoError(err)
}

func (s *TrackerSuite) TestReleaseFreesClaim() {
	_, err := s.tracker.Claim(s.ctx, "p1", model.ActionFish, s.now, 45*time.Second)
	s.Require().NoError(err)
	s.Require().NoError(s.tracker.Release(s.ctx, "p1", model.ActionFish))

	ready, _, err := s.tracker.IsReady(s.ctx, "p1", model.ActionFish, s.now)
	s.Require().NoError(err)
	s.True(ready)
}
