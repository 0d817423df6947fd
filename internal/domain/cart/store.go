package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store holds the cart lines for one session. All operations are pure state
// transitions on the receiver; persistence happens separately via the
// snapshot codec. A Store is not safe for concurrent use.
type Store struct {
	items []Item
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Restore builds a Store from previously persisted lines, preserving order.
func Restore(items []Item) *Store {
	s := &Store{items: make([]Item, len(items))}
	copy(s.items, items)
	return s
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Add merges the item into an existing line with the same product, or appends
// a new line with a generated unique ID. The merged (or initial) quantity is
// bounded by the stock snapshot recorded on the line; exceeding it rejects
// the whole mutation and leaves the cart unchanged.
func (s *Store) Add(item Item) Result {
	if item.Quantity < 1 {
		return RejectedInvalidQuantity
	}

	for i := range s.items {
		if s.items[i].ProductID != item.ProductID {
			continue
		}
		merged := s.items[i].Quantity + item.Quantity
		if merged > s.items[i].Stock {
			return RejectedInsufficientStock
		}
		s.items[i].Quantity = merged
		return Merged
	}

	if item.Quantity > item.Stock {
		return RejectedInsufficientStock
	}

	item.ID = uuid.New().String()
	s.items = append(s.items, item)
	return Added
}

// Remove deletes the line matching productID. Removing an absent line is not
// an error.
func (s *Store) Remove(productID string) Result {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return Removed
}

// UpdateQuantity sets the quantity on the line matching productID. A
// non-positive quantity removes the line. A quantity above the line's stock
// snapshot is rejected and the line keeps its previous quantity. An absent
// line reports Missing.
func (s *Store) UpdateQuantity(productID string, quantity int) Result {
	if quantity <= 0 {
		return s.Remove(productID)
	}
	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if quantity > s.items[i].Stock {
			return RejectedInsufficientStock
		}
		s.items[i].Quantity = quantity
		return Updated
	}
	return Missing
}

// Clear empties all lines unconditionally.
func (s *Store) Clear() {
	s.items = nil
}

// TotalPrice returns the sum of price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// TotalItems returns the sum of quantities over all lines.
func (s *Store) TotalItems() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Contains reports whether a line for productID exists.
func (s *Store) Contains(productID string) bool {
	for _, it := range s.items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	return len(s.items)
}
