package model

import (
	"context"
	"time"
)

// EventType identifies the type of event
type EventType string

const (
	EventPlayerUpdated EventType = "player-updated"
)

// Event sources describing what changed the record
const (
	SourceAction   = "action"
	SourcePurchase = "purchase"
	SourcePayment  = "payment"
	SourcePatch    = "patch"
)

// Event is pushed to subscribers of a player's record
type Event struct {
	Type      EventType
	Timestamp time.Time
	PlayerID  PlayerID
	Source    string
	Player    *PlayerRecord
}

// PlayerPublisher announces player record changes to live subscribers
type PlayerPublisher interface {
	PublishPlayer(ctx context.Context, player *PlayerRecord, source string)
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) PublishPlayer(context.Context, *PlayerRecord, string) {}
