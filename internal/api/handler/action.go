package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/model"
	"github.com/mcoot/rpgdash/internal/services/action"
)

// ActionHandler handles action endpoints
type ActionHandler struct {
	actions *action.Controller
}

// NewActionHandler creates a new action handler
func NewActionHandler(actions *action.Controller) *ActionHandler {
	return &ActionHandler{actions: actions}
}

// Perform handles POST /api/v1/players/{id}/actions/{kind}
func (h *ActionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseActionKind(mux.Vars(r)["kind"])
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.actions.Perform(r.Context(), playerIDFromPath(r), kind)
	if err != nil {
		WriteError(w, err)
		return
	}

	rule, _ := action.RuleFor(kind)
	response.JSON(w, http.StatusOK, response.ActionResponse{
		Action:            string(result.Kind),
		Reward:            response.Reward{Gold: result.Reward.Gold, XP: result.Reward.XP},
		Player:            response.PlayerFromModel(result.Player),
		CooldownExpiresAt: result.CooldownExpiresAt.UnixMilli(),
		CooldownMS:        rule.Cooldown.Milliseconds(),
		Saved:             result.Saved,
		Warning:           result.Warning,
	})
}
