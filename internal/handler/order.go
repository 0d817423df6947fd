package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/pricing"
)

// orderLineReq is one requested line on the wire. Client-echoed prices are
// advisory only.
type orderLineReq struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

type addressReq struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Email      string `json:"email"`
}

type placeOrderReq struct {
	Items          []orderLineReq `json:"items"`
	Address        addressReq     `json:"address"`
	PaymentMethod  string         `json:"paymentMethod"`
	Notes          string         `json:"notes,omitempty"`
	UserID         string         `json:"userId,omitempty"`
	GuestEmail     string         `json:"guestEmail,omitempty"`
	Subtotal       float64        `json:"subtotal,omitempty"`
	Tax            float64        `json:"tax,omitempty"`
	Shipping       float64        `json:"shipping,omitempty"`
	Total          float64        `json:"total,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey,omitempty"`
}

type orderItemResp struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// orderEnvelope wraps successful order responses.
type orderEnvelope struct {
	Success bool      `json:"success"`
	Order   orderResp `json:"order"`
}

type orderListEnvelope struct {
	Success bool        `json:"success"`
	Orders  []orderResp `json:"orders"`
}

type orderResp struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	UserID        string          `json:"userId,omitempty"`
	GuestEmail    string          `json:"guestEmail,omitempty"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentMethod string          `json:"paymentMethod"`
	Subtotal      float64         `json:"subtotal"`
	Tax           float64         `json:"tax"`
	Shipping      float64         `json:"shipping"`
	Total         float64         `json:"total"`
	Notes         string          `json:"notes,omitempty"`
	Address       addressReq      `json:"address"`
	Items         []orderItemResp `json:"items"`
	CreatedAt     string          `json:"createdAt"`
}

// PlaceOrder handles POST /api/orders. Totals are always computed
// server-side; client figures are only verified, never trusted.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	items := make([]order.LineInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.LineInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
	}

	result, err := h.orderService.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Items: items,
		Address: order.Address{
			Address1:   req.Address.Address1,
			Address2:   req.Address.Address2,
			City:       req.Address.City,
			Province:   req.Address.Province,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
			Email:      req.Address.Email,
		},
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
		UserID:        req.UserID,
		GuestEmail:    req.GuestEmail,
		ClientQuote: pricing.Quote{
			Subtotal: decimal.NewFromFloat(req.Subtotal),
			Tax:      decimal.NewFromFloat(req.Tax),
			Shipping: decimal.NewFromFloat(req.Shipping),
			Total:    decimal.NewFromFloat(req.Total),
		},
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, r, status, orderEnvelope{Success: true, Order: toOrderResp(result.Order)})
}

// GetOrder handles GET /api/orders/{id}. The path segment must be an order
// UUID; malformed IDs are a 400, not a 404.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "order not found")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, orderEnvelope{Success: true, Order: toOrderResp(o)})
}

// ListUserOrders handles GET /api/users/{userId}/orders.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		respondError(w, r, http.StatusBadRequest, "missing user id")
		return
	}

	list, err := h.orderService.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := orderListEnvelope{Success: true, Orders: make([]orderResp, len(list))}
	for i := range list {
		resp.Orders[i] = toOrderResp(&list[i])
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// respondOrderError maps checkout errors onto HTTP status codes.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, r, http.StatusBadRequest, struct {
			Code    int               `json:"code"`
			Message string            `json:"message"`
			Fields  []order.FieldError `json:"fields"`
		}{http.StatusBadRequest, "invalid order request", vErr.Fields})
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		respondError(w, r, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	var stockErr *order.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondError(w, r, http.StatusConflict, stockErr.Error())
		return
	}

	var priceErr *order.PriceMismatchError
	if errors.As(err, &priceErr) {
		respondError(w, r, http.StatusUnprocessableEntity, priceErr.Error())
		return
	}

	respondError(w, r, http.StatusInternalServerError, "internal error")
}

func toOrderResp(o *order.Order) orderResp {
	items := make([]orderItemResp, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResp{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice.InexactFloat64(),
			Total:     it.Total.InexactFloat64(),
		}
	}

	return orderResp{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		GuestEmail:    o.GuestEmail,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		Subtotal:      o.Subtotal.InexactFloat64(),
		Tax:           o.Tax.InexactFloat64(),
		Shipping:      o.Shipping.InexactFloat64(),
		Total:         o.Total.InexactFloat64(),
		Notes:         o.Notes,
		Address: addressReq{
			Address1:   o.Address.Address1,
			Address2:   o.Address.Address2,
			City:       o.Address.City,
			Province:   o.Address.Province,
			PostalCode: o.Address.PostalCode,
			Country:    o.Address.Country,
			Email:      o.Address.Email,
		},
		Items:     items,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
