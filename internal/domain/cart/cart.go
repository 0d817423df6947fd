// Package cart implements the shopper's pending purchase selection: an
// ordered set of lines with stock-bounded quantities and an injected
// persistence port for durable snapshots.
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is one distinct product entry in the cart. Stock is the available
// inventory captured when the line was first added; it bounds every later
// quantity increase on the line.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	SKU       string          `json:"sku"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image"`
}

// Result reports the outcome of a cart mutation. Rejections leave the cart
// unchanged; callers can surface the reason instead of guessing.
type Result int

const (
	// Added means a new line was appended.
	Added Result = iota
	// Merged means the quantity was folded into an existing line.
	Merged
	// Updated means an existing line's quantity was set.
	Updated
	// Removed means the line was removed (also the outcome of a
	// non-positive quantity update).
	Removed
	// Missing means no line matched the product and nothing changed.
	Missing
	// RejectedInsufficientStock means the mutation would push a line's
	// quantity past its recorded stock snapshot.
	RejectedInsufficientStock
	// RejectedInvalidQuantity means the requested quantity was below one.
	RejectedInvalidQuantity
)

func (r Result) String() string {
	switch r {
	case Added:
		return "added"
	case Merged:
		return "merged"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Missing:
		return "no matching line"
	case RejectedInsufficientStock:
		return "rejected: insufficient stock"
	case RejectedInvalidQuantity:
		return "rejected: invalid quantity"
	default:
		return "unknown"
	}
}

// Rejected reports whether the result left the cart unchanged due to a
// constraint violation.
func (r Result) Rejected() bool {
	return r == RejectedInsufficientStock || r == RejectedInvalidQuantity
}

// Snapshots is the persistence port for durable cart state. Implementations
// must treat a missing key as (nil, nil).
type Snapshots interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
