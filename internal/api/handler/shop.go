package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/rpgdash/internal/api/request"
	"github.com/mcoot/rpgdash/internal/api/response"
	"github.com/mcoot/rpgdash/internal/services/shop"
)

// ShopHandler handles catalog and purchase endpoints
type ShopHandler struct {
	shop *shop.Service
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shop *shop.Service) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// Items handles GET /api/v1/shop/items
func (h *ShopHandler) Items(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ShopItemsFromModel(h.shop.Catalog().Entries()))
}

// Purchase handles POST /api/v1/players/{id}/purchases
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req request.PurchaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if strings.TrimSpace(req.Item) == "" {
		WriteError(w, NewInvalidRequestError("item is required"))
		return
	}

	rec, err := h.shop.Purchase(r.Context(), playerIDFromPath(r), req.Item, req.Price)
	if err != nil {
		WriteError(w, err)
		return
	}

	entry, _ := h.shop.Catalog().Lookup(req.Item)
	response.JSON(w, http.StatusOK, response.PurchaseResponse{
		Item:   entry.Name,
		Price:  entry.Price,
		Player: response.PlayerFromModel(rec),
	})
}
