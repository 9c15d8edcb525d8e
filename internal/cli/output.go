package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/rpgdash/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case ActionResult:
		o.printActionResult(v)
	case CooldownList:
		o.printCooldowns(v)
	case ShopItems:
		o.printShopItems(v)
	case PurchaseResult:
		o.printPurchaseResult(v)
	case CheckoutResult:
		o.printCheckoutResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player is the record view returned by the API
type Player = model.PlayerRecord

// Reward response type
type Reward struct {
	Gold int64 `json:"gold"`
	XP   int64 `json:"xp"`
}

// ActionResult response type
type ActionResult struct {
	Action            string `json:"action"`
	Reward            Reward `json:"reward"`
	Player            Player `json:"player"`
	CooldownExpiresAt int64  `json:"cooldown_expires_at"`
	CooldownMS        int64  `json:"cooldown_ms"`
	Saved             bool   `json:"saved"`
	Warning           string `json:"warning,omitempty"`
}

// Cooldown response type
type Cooldown struct {
	Action      string `json:"action"`
	ExpiresAt   int64  `json:"expires_at"`
	RemainingMS int64  `json:"remaining_ms"`
}

// CooldownList response type
type CooldownList struct {
	PlayerID  string     `json:"player_id"`
	Cooldowns []Cooldown `json:"cooldowns"`
}

// At recomputes remaining times against now, dropping expired entries
func (l CooldownList) At(now time.Time) CooldownList {
	out := CooldownList{PlayerID: l.PlayerID, Cooldowns: []Cooldown{}}
	for _, cd := range l.Cooldowns {
		remaining := time.UnixMilli(cd.ExpiresAt).Sub(now)
		if remaining <= 0 {
			continue
		}
		cd.RemainingMS = remaining.Milliseconds()
		out.Cooldowns = append(out.Cooldowns, cd)
	}
	return out
}

// ShopItem response type
type ShopItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// ShopItems response type
type ShopItems struct {
	Items []ShopItem `json:"items"`
}

// PurchaseResult response type
type PurchaseResult struct {
	Item   string `json:"item"`
	Price  int64  `json:"price"`
	Player Player `json:"player"`
}

// CheckoutResult response type
type CheckoutResult struct {
	CheckoutURL  string `json:"checkout_url"`
	PreferenceID string `json:"preference_id"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	stats := []struct {
		label string
		value *int64
	}{
		{"Level", p.Level}, {"Experience", p.Experience}, {"Health", p.Health},
		{"Energy", p.Energy}, {"Mana", p.Mana},
	}
	for _, s := range stats {
		if s.value != nil {
			fmt.Fprintf(o.w, "%s: %d\n", s.label, *s.value)
		}
	}
	fmt.Fprintf(o.w, "Gold: %d\n", p.Gold)
	fmt.Fprintf(o.w, "Balance: %s\n", p.MonetaryBalance.StringFixed(2))

	if len(p.Inventory) > 0 {
		items := make([]string, 0, len(p.Inventory))
		for item := range p.Inventory {
			items = append(items, item)
		}
		sort.Strings(items)
		fmt.Fprintln(o.w, "Inventory:")
		for _, item := range items {
			fmt.Fprintf(o.w, "  - %s x%d\n", item, p.Inventory[item])
		}
	}
}

func (o *Output) printActionResult(a ActionResult) {
	fmt.Fprintf(o.w, "%s: +%d gold, +%d xp\n", a.Action, a.Reward.Gold, a.Reward.XP)
	fmt.Fprintf(o.w, "Gold: %d\n", a.Player.Gold)
	fmt.Fprintf(o.w, "Experience: %d\n", a.Player.ExperienceValue())
	fmt.Fprintf(o.w, "Ready again at %s\n", time.UnixMilli(a.CooldownExpiresAt).Format("15:04:05"))
	if !a.Saved {
		fmt.Fprintf(o.w, "Warning: %s\n", a.Warning)
	}
}

func (o *Output) printCooldowns(l CooldownList) {
	if len(l.Cooldowns) == 0 {
		fmt.Fprintln(o.w, "All actions ready")
		return
	}
	parts := make([]string, 0, len(l.Cooldowns))
	for _, cd := range l.Cooldowns {
		remaining := time.Duration(cd.RemainingMS) * time.Millisecond
		parts = append(parts, fmt.Sprintf("%s %s", cd.Action, remaining.Round(time.Second)))
	}
	fmt.Fprintf(o.w, "Cooling down: %s\n", strings.Join(parts, ", "))
}

func (o *Output) printShopItems(s ShopItems) {
	for _, item := range s.Items {
		icon := item.Icon
		if icon == "" {
			icon = "-"
		}
		fmt.Fprintf(o.w, "%s %-14s %-16s %4d gold\n", icon, item.Name, item.Label, item.Price)
	}
}

func (o *Output) printPurchaseResult(p PurchaseResult) {
	fmt.Fprintf(o.w, "Bought %s for %d gold\n", p.Item, p.Price)
	fmt.Fprintf(o.w, "Gold left: %d\n", p.Player.Gold)
	fmt.Fprintf(o.w, "You now have %d %s\n", p.Player.ItemCount(p.Item), p.Item)
}

func (o *Output) printCheckoutResult(c CheckoutResult) {
	fmt.Fprintf(o.w, "Checkout: %s\n", c.CheckoutURL)
	fmt.Fprintf(o.w, "Preference: %s\n", c.PreferenceID)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s (%dms)\n", h.Status, h.LatencyMS)
}
