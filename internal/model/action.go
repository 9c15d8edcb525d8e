package model

import (
	"fmt"
	"strings"
)

// ActionKind identifies one of the timed player actions
type ActionKind string

const (
	ActionWork  ActionKind = "work"
	ActionFish  ActionKind = "fish"
	ActionSleep ActionKind = "sleep"
	ActionTrain ActionKind = "train"
)

// AllActionKinds lists every action in display order
var AllActionKinds = []ActionKind{ActionWork, ActionFish, ActionSleep, ActionTrain}

// ParseActionKind converts user input into an ActionKind
func ParseActionKind(s string) (ActionKind, error) {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
	}
	return kind, nil
}

// IsValid reports whether k is a known action
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionWork, ActionFish, ActionSleep, ActionTrain:
		return true
	}
	return false
}

func (k ActionKind) String() string {
	return string(k)
}
