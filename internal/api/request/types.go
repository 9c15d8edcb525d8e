package request

import (
	"github.com/shopspring/decimal"

	"github.com/mcoot/rpgdash/internal/model"
)

// PatchPlayerRequest is a partial player document
type PatchPlayerRequest = model.PlayerPatch

// PurchaseRequest is the request body for buying an item
type PurchaseRequest struct {
	Item  string `json:"item"`
	Price *int64 `json:"price,omitempty"`
}

// CheckoutRequest is the request body for starting a top-up
type CheckoutRequest struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}
