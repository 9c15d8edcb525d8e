package sse

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/model"
)

// Broadcaster pushes player record changes to the player's SSE hub
type Broadcaster struct {
	hubManager *HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

var _ model.PlayerPublisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, clock clock.Clock, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		clock:      clock,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// PublishPlayer sends a player-updated event carrying the presentation view
// of the record. Players without subscribers are skipped.
func (b *Broadcaster) PublishPlayer(ctx context.Context, player *model.PlayerRecord, source string) {
	if player == nil {
		return
	}
	hub := b.hubManager.GetHub(player.ID)
	if hub == nil {
		return
	}

	event := model.Event{
		Type:      model.EventPlayerUpdated,
		Timestamp: b.clock.Now(),
		PlayerID:  player.ID,
		Source:    source,
		Player:    player,
	}
	data, err := json.Marshal(response.EventFromModel(event))
	if err != nil {
		b.logger.Error("sse failed to encode player event",
			slog.String("player_id", string(player.ID)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(string(model.EventPlayerUpdated), string(data))
}
