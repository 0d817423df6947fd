// Package handler exposes the storefront HTTP API, delegating business
// logic to the domain services and repositories.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/oakmart/storefront/internal/domain/auth"
	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/product"
)

// ImageStore persists uploaded images and returns their public URL path.
type ImageStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler routes storefront API requests to the domain layer.
type Handler struct {
	products     product.Repository
	orderService *order.Service
	carts        cart.Snapshots
	images       ImageStore
	security     *Security
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	orderService *order.Service,
	carts cart.Snapshots,
	images ImageStore,
	apikeys auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		products:     products,
		orderService: orderService,
		carts:        carts,
		images:       images,
		security:     NewSecurity(apikeys, pepper),
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers every API endpoint on a fresh mux and returns it.
// Mutating catalog endpoints require an admin-scoped API key.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/products", h.security.Require(auth.ScopeAdmin, h.CreateProduct))
	mux.HandleFunc("PUT /api/products/{id}", h.security.Require(auth.ScopeAdmin, h.UpdateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", h.security.Require(auth.ScopeAdmin, h.DeleteProduct))

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("GET /api/users/{userId}/orders", h.ListUserOrders)

	mux.HandleFunc("GET /api/carts/{cartId}", h.GetCart)
	mux.HandleFunc("POST /api/carts/{cartId}/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/carts/{cartId}/items/{productId}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/carts/{cartId}/items/{productId}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/carts/{cartId}", h.ClearCart)

	mux.HandleFunc("POST /api/upload", h.security.Require(auth.ScopeAdmin, h.Upload))

	return mux
}
