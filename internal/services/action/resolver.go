package action

import (
	"fmt"
	"time"

	"github.com/mcoot/rpgdash/internal/dependencies/random"
	"github.com/mcoot/rpgdash/internal/model"
)

// Reward is what a resolved action grants
type Reward struct {
	Gold int64 `json:"gold"`
	XP   int64 `json:"xp"`
}

// Range is an inclusive integer range
type Range struct {
	Min int64
	Max int64
}

// Rule is the reward table entry and cooldown for one action
type Rule struct {
	Gold     Range
	XP       Range
	Cooldown time.Duration
}

var rules = map[model.ActionKind]Rule{
	model.ActionWork:  {Gold: Range{10, 50}, XP: Range{5, 20}, Cooldown: 60 * time.Second},
	model.ActionFish:  {Gold: Range{5, 30}, XP: Range{3, 15}, Cooldown: 45 * time.Second},
	model.ActionSleep: {Gold: Range{0, 0}, XP: Range{1, 10}, Cooldown: 120 * time.Second},
	model.ActionTrain: {Gold: Range{0, 0}, XP: Range{5, 25}, Cooldown: 90 * time.Second},
}

// RuleFor returns the rule for an action kind
func RuleFor(kind model.ActionKind) (Rule, error) {
	rule, ok := rules[kind]
	if !ok {
		return Rule{}, fmt.Errorf("%w: unknown action %q", model.ErrValidation, kind)
	}
	return rule, nil
}

// Resolve samples a reward for the action. Gold is drawn before XP.
func Resolve(kind model.ActionKind, rng random.Random) (Reward, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return Reward{}, err
	}
	return Reward{
		Gold: random.Between(rng, rule.Gold.Min, rule.Gold.Max),
		XP:   random.Between(rng, rule.XP.Min, rule.XP.Max),
	}, nil
}
