package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpgdash/internal/dependencies/mocks"
	"github.com/mcoot/rpgdash/internal/dependencies/random"
	"github.com/mcoot/rpgdash/internal/model"
)

func TestResolveUsesRangeBounds(t *testing.T) {
	rng := mocks.NewMockRandom()
	rng.QueueIntn(0, 0, 40, 15)

	low, err := Resolve(model.ActionWork, rng)
	require.NoError(t, err)
	assert.Equal(t, Reward{Gold: 10, XP: 5}, low)

	high, err := Resolve(model.ActionWork, rng)
	require.NoError(t, err)
	assert.Equal(t, Reward{Gold: 50, XP: 20}, high)

	assert.Equal(t, []int{41, 16, 41, 16}, rng.Calls)
}

func TestResolveSleepAndTrainGrantNoGold(t *testing.T) {
	for _, kind := range []model.ActionKind{model.ActionSleep, model.ActionTrain} {
		rng := mocks.NewMockRandom()
		rng.QueueIntn(0, 3)

		reward, err := Resolve(kind, rng)
		require.NoError(t, err)
		assert.Zero(t, reward.Gold, kind)
		assert.Positive(t, reward.XP, kind)
	}
}

func TestResolveStaysWithinRanges(t *testing.T) {
	rng := random.New()
	for _, kind := range model.AllActionKinds {
		rule, err := RuleFor(kind)
		require.NoError(t, err)
		for i := 0; i < 200; i++ {
			reward, err := Resolve(kind, rng)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, reward.Gold, rule.Gold.Min)
			assert.LessOrEqual(t, reward.Gold, rule.Gold.Max)
			assert.GreaterOrEqual(t, reward.XP, rule.XP.Min)
			assert.LessOrEqual(t, reward.XP, rule.XP.Max)
		}
	}
}

func TestCooldownDurations(t *testing.T) {
	expected := map[model.ActionKind]time.Duration{
		model.ActionWork:  60 * time.Second,
		model.ActionFish:  45 * time.Second,
		model.ActionSleep: 120 * time.Second,
		model.ActionTrain: 90 * time.Second,
	}
	for kind, d := range expected {
		rule, err := RuleFor(kind)
		require.NoError(t, err)
		assert.Equal(t, d, rule.Cooldown, kind)
	}
}

func TestResolveUnknownAction(t *testing.T) {
	_, err := Resolve("dance", mocks.NewMockRandom())
	assert.ErrorIs(t, err, model.ErrValidation)
}
