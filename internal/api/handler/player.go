package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpgdash/internal/api/request"
	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/dependencies/clock"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/action"
	"github.com/mcoot/rpgdash/internal/services/player"
	"github.com/mcoot/rpgdash/internal/sse"
)

// PlayerHandler handles player record endpoints
type PlayerHandler struct {
	players    *player.Service
	actions    *action.Controller
	hubManager *sse.HubManager
	clock      clock.Clock
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *player.Service, actions *action.Controller, hubManager *sse.HubManager, clock clock.Clock) *PlayerHandler {
	return &PlayerHandler{
		players:    players,
		actions:    actions,
		hubManager: hubManager,
		clock:      clock,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.players.Get(r.Context(), playerIDFromPath(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(rec))
}

// Patch handles PATCH /api/v1/players/{id}
func (h *PlayerHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req request.PatchPlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.players.Patch(r.Context(), playerIDFromPath(r), req)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(rec))
}

// Cooldowns handles GET /api/v1/players/{id}/cooldowns
func (h *PlayerHandler) Cooldowns(w http.ResponseWriter, r *http.Request) {
	playerID := playerIDFromPath(r)
	if _, err := h.players.Get(r.Context(), playerID); err != nil {
		WriteError(w, err)
		return
	}

	now := h.clock.Now()
	active, err := h.actions.Cooldowns(r.Context(), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CooldownsFromModel(playerID, active, now))
}

// Events handles GET /api/v1/players/{id}/events
func (h *PlayerHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := playerIDFromPath(r)
	if _, err := h.players.Get(r.Context(), playerID); err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager.GetOrCreateHub(playerID))
}

func playerIDFromPath(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}
