package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/product"
)

type cartItemResp struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	SKU       string  `json:"sku,omitempty"`
	Stock     int     `json:"stock"`
	Image     string  `json:"image,omitempty"`
}

type cartResp struct {
	ID         string         `json:"id"`
	Items      []cartItemResp `json:"items"`
	TotalItems int            `json:"totalItems"`
	TotalPrice float64        `json:"totalPrice"`
}

type addCartItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemReq struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /api/carts/{cartId}. Unknown carts come back empty
// rather than 404: a fresh session simply has nothing in it yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := r.PathValue("cartId")

	store, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResp(cartID, store))
}

// AddCartItem handles POST /api/carts/{cartId}/items. The product's name,
// price and stock are captured from the catalog at add time.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := r.PathValue("cartId")

	var req addCartItemReq
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity < 1 {
		respondError(w, r, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if p.Status != product.StatusActive {
		respondError(w, r, http.StatusNotFound, "product not found")
		return
	}

	store, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}

	result := store.Add(cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  req.Quantity,
		SKU:       p.SKU,
		Stock:     p.Stock,
		Image:     p.Image,
	})
	if result.Rejected() {
		respondError(w, r, http.StatusConflict, result.String())
		return
	}

	if !h.saveCart(w, r, cartID, store) {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResp(cartID, store))
}

// UpdateCartItem handles PUT /api/carts/{cartId}/items/{productId}. A
// quantity at or below zero removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := r.PathValue("cartId")
	productID := r.PathValue("productId")

	var req updateCartItemReq
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	store, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	if !store.Contains(productID) {
		respondError(w, r, http.StatusNotFound, "item not in cart")
		return
	}

	result := store.UpdateQuantity(productID, req.Quantity)
	if result.Rejected() {
		respondError(w, r, http.StatusConflict, result.String())
		return
	}

	if !h.saveCart(w, r, cartID, store) {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResp(cartID, store))
}

// RemoveCartItem handles DELETE /api/carts/{cartId}/items/{productId}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cartID := r.PathValue("cartId")
	productID := r.PathValue("productId")

	store, ok := h.loadCart(w, r, cartID)
	if !ok {
		return
	}
	store.Remove(productID)

	if !h.saveCart(w, r, cartID, store) {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResp(cartID, store))
}

// ClearCart handles DELETE /api/carts/{cartId}, dropping the snapshot
// entirely.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := r.PathValue("cartId")

	if err := h.carts.Delete(r.Context(), cartID); err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadCart fetches and decodes the session's snapshot. A corrupt snapshot is
// treated as an empty cart rather than locking the shopper out.
func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request, cartID string) (*cart.Store, bool) {
	data, err := h.carts.Load(r.Context(), cartID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return nil, false
	}

	store, err := cart.DecodeSnapshot(data)
	if err != nil {
		store = cart.New()
	}
	return store, true
}

func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request, cartID string, store *cart.Store) bool {
	data, err := cart.EncodeSnapshot(store)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return false
	}
	if err := h.carts.Save(r.Context(), cartID, data); err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return false
	}
	return true
}

func toCartResp(cartID string, store *cart.Store) cartResp {
	items := store.Items()
	resp := cartResp{
		ID:         cartID,
		Items:      make([]cartItemResp, len(items)),
		TotalItems: store.TotalItems(),
		TotalPrice: store.TotalPrice().InexactFloat64(),
	}
	for i, it := range items {
		resp.Items[i] = cartItemResp{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
			SKU:       it.SKU,
			Stock:     it.Stock,
			Image:     it.Image,
		}
	}
	return resp
}
