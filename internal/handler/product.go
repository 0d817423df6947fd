package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/product"
)

type productResp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	SKU         string  `json:"sku"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	Featured    bool    `json:"featured"`
	Status      string  `json:"status"`
	Image       string  `json:"image,omitempty"`
}

type productPageResp struct {
	Products []productResp `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

type productWriteReq struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Featured    bool    `json:"featured"`
	Status      string  `json:"status"`
	Image       string  `json:"image"`
}

// ListProducts handles GET /api/products with optional category, search,
// featured and pagination query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := product.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Featured: q.Get("featured") == "true",
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter = filter.Normalize()

	page, err := h.products.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := productPageResp{
		Products: make([]productResp, len(page.Products)),
		Total:    page.Total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	for i, p := range page.Products {
		resp.Products[i] = h.toProductResp(p)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// GetProduct handles GET /api/products/{id}, resolving by ID first and
// falling back to slug so storefront URLs stay pretty.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("id")

	p, err := h.products.GetByID(r.Context(), key)
	if errors.Is(err, product.ErrNotFound) {
		p, err = h.products.GetBySlug(r.Context(), key)
	}
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, h.toProductResp(*p))
}

// CreateProduct handles POST /api/products. Admin only.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productWriteReq
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	p, problem := req.toDomain()
	if problem != "" {
		respondError(w, r, http.StatusBadRequest, problem)
		return
	}
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := h.products.Create(r.Context(), p); err != nil {
		h.respondProductError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, h.toProductResp(*p))
}

// UpdateProduct handles PUT /api/products/{id}. Admin only.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productWriteReq
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	p, problem := req.toDomain()
	if problem != "" {
		respondError(w, r, http.StatusBadRequest, problem)
		return
	}
	p.ID = r.PathValue("id")
	p.UpdatedAt = time.Now().UTC()

	if err := h.products.Update(r.Context(), p); err != nil {
		h.respondProductError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.toProductResp(*p))
}

// DeleteProduct handles DELETE /api/products/{id}. Products referenced by
// existing orders cannot be removed; deactivate them instead.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	referenced, err := h.products.HasOrders(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if referenced {
		respondError(w, r, http.StatusConflict, product.ErrHasOrders.Error())
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.respondProductError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "product not found")
	case errors.Is(err, product.ErrDuplicateSKU), errors.Is(err, product.ErrDuplicateSlug):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, product.ErrHasOrders):
		respondError(w, r, http.StatusConflict, err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (req *productWriteReq) toDomain() (*product.Product, string) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, "name is required"
	case strings.TrimSpace(req.Slug) == "":
		return nil, "slug is required"
	case strings.TrimSpace(req.SKU) == "":
		return nil, "sku is required"
	case req.Price < 0:
		return nil, "price must not be negative"
	case req.Stock < 0:
		return nil, "stock must not be negative"
	}

	status := product.Status(req.Status)
	if status == "" {
		status = product.StatusActive
	}
	if status != product.StatusActive && status != product.StatusInactive {
		return nil, "status must be ACTIVE or INACTIVE"
	}

	return &product.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price).Round(2),
		Stock:       req.Stock,
		Category:    req.Category,
		Featured:    req.Featured,
		Status:      status,
		Image:       req.Image,
	}, ""
}

func (h *Handler) toProductResp(p product.Product) productResp {
	image := p.Image
	if image != "" && h.imageBaseURL != "" && strings.HasPrefix(image, "/") {
		image = strings.TrimSuffix(h.imageBaseURL, "/") + image
	}

	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		Category:    p.Category,
		Featured:    p.Featured,
		Status:      string(p.Status),
		Image:       image,
	}
}
