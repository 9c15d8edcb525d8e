package cli

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mcoot/rpgdash/internal/model"
)

func TestOutput_PrintPlayer(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(Player{
		ID:              "ayla",
		Name:            "Ayla",
		Level:           model.Int64(3),
		Gold:            30,
		MonetaryBalance: decimal.RequireFromString("4.5"),
		Inventory:       map[string]int64{"rope": 1, "bread": 2},
	})

	assert.Equal(t, "Player: Ayla (ayla)\nLevel: 3\nGold: 30\nBalance: 4.50\nInventory:\n  - bread x2\n  - rope x1\n", buf.String())
}

func TestOutput_PrintCooldowns(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(CooldownList{PlayerID: "ayla", Cooldowns: []Cooldown{}})
	out.Print(CooldownList{PlayerID: "ayla", Cooldowns: []Cooldown{
		{Action: "work", RemainingMS: 40200},
		{Action: "fish", RemainingMS: 5000},
	}})

	assert.Equal(t, "All actions ready\nCooling down: work 40s, fish 5s\n", buf.String())
}

func TestOutput_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "json", w: &buf}

	out.Print(HealthResult{Status: "ok"})
	out.PrintMessage("done")

	assert.Equal(t, "{\n  \"status\": \"ok\"\n}\n{\"message\":\"done\"}\n", buf.String())
}
