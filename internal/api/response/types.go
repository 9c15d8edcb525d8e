package response

import (
	"encoding/json"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
)

// Player is the presentation view of a player record. It carries every
// stored attribute except the password hash and unmodelled keys that look
// like credentials.
type Player struct {
	record *model.PlayerRecord
}

// PlayerFromModel wraps a record for presentation
func PlayerFromModel(p *model.PlayerRecord) Player {
	return Player{record: p}
}

// MarshalJSON writes the filtered record document
func (p Player) MarshalJSON() ([]byte, error) {
	if p.record == nil {
		return []byte("null"), nil
	}
	view := p.record.Clone()
	view.PasswordHash = ""
	for k := range view.Extra {
		if model.IsSecretField(k) {
			delete(view.Extra, k)
		}
	}
	return json.Marshal(view)
}

// Reward is the gold and experience granted by an action
type Reward struct {
	Gold int64 `json:"gold"`
	XP   int64 `json:"xp"`
}

// ActionResponse is the response for performing an action
type ActionResponse struct {
	Action            string `json:"action"`
	Reward            Reward `json:"reward"`
	Player            Player `json:"player"`
	CooldownExpiresAt int64  `json:"cooldown_expires_at"`
	CooldownMS        int64  `json:"cooldown_ms"`
	Saved             bool   `json:"saved"`
	Warning           string `json:"warning,omitempty"`
}

// Cooldown is one action still cooling down
type Cooldown struct {
	Action      string `json:"action"`
	ExpiresAt   int64  `json:"expires_at"`
	RemainingMS int64  `json:"remaining_ms"`
}

// CooldownsResponse lists a player's active cooldowns
type CooldownsResponse struct {
	PlayerID  string     `json:"player_id"`
	Cooldowns []Cooldown `json:"cooldowns"`
}

// CooldownsFromModel builds the response in action display order
func CooldownsFromModel(playerID model.PlayerID, active map[model.ActionKind]time.Time, now time.Time) CooldownsResponse {
	resp := CooldownsResponse{PlayerID: string(playerID), Cooldowns: []Cooldown{}}
	for _, kind := range model.AllActionKinds {
		expiresAt, ok := active[kind]
		if !ok {
			continue
		}
		resp.Cooldowns = append(resp.Cooldowns, Cooldown{
			Action:      string(kind),
			ExpiresAt:   expiresAt.UnixMilli(),
			RemainingMS: expiresAt.Sub(now).Milliseconds(),
		})
	}
	return resp
}

// ShopItem is a catalog entry
type ShopItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// ShopItemsResponse is the shop catalog
type ShopItemsResponse struct {
	Items []ShopItem `json:"items"`
}

// ShopItemsFromModel converts catalog entries
func ShopItemsFromModel(entries []model.CatalogEntry) ShopItemsResponse {
	resp := ShopItemsResponse{Items: make([]ShopItem, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, ShopItem{Name: e.Name, Price: e.Price, Label: e.Label, Icon: e.Icon})
	}
	return resp
}

// PurchaseResponse is the response for a completed purchase
type PurchaseResponse struct {
	Item   string `json:"item"`
	Price  int64  `json:"price"`
	Player Player `json:"player"`
}

// CheckoutResponse is the response for a created checkout
type CheckoutResponse struct {
	CheckoutURL  string `json:"checkout_url"`
	PreferenceID string `json:"preference_id"`
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}

// Event is the data of a player-updated SSE event
type Event struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	Player    Player `json:"player"`
}

// EventFromModel converts a model event
func EventFromModel(e model.Event) Event {
	return Event{
		Type:      string(e.Type),
		Source:    e.Source,
		Timestamp: e.Timestamp.UnixMilli(),
		Player:    PlayerFromModel(e.Player),
	}
}
