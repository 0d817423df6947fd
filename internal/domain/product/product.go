package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups and admin mutations.
var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateSKU  = errors.New("product with this SKU already exists")
	ErrDuplicateSlug = errors.New("product with this slug already exists")
	ErrHasOrders     = errors.New("product is referenced by existing orders")
)

// Status marks whether a product is visible to shoppers.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Slug        string
	SKU         string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Featured    bool
	Status      Status
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows a catalog listing. Zero values mean "no constraint".
type Filter struct {
	Category        string
	Search          string // substring match over name and description
	Featured        bool
	IncludeInactive bool
	Page            int // 1-based; defaults to 1
	Limit           int // defaults to 12
}

// Normalize clamps pagination to sane bounds.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 12
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// Offset returns the row offset for the normalized page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one page of catalog results plus the unpaginated total.
type Page struct {
	Products []Product
	Total    int
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) (*Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	HasOrders(ctx context.Context, id string) (bool, error)
}
