package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the order lifecycle state. Orders are created pending; later
// transitions (paid, shipped, delivered, cancelled) happen outside checkout.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks the payment side of the lifecycle.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentMethod identifies how the purchaser intends to pay. Actual payment
// processing is delegated to the external provider.
type PaymentMethod string

const (
	PaymentStripe         PaymentMethod = "stripe"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

// Valid reports whether the method is one we accept.
func (m PaymentMethod) Valid() bool {
	return m == PaymentStripe || m == PaymentCashOnDelivery
}

// Address is the shipping destination snapshot stored on the order.
type Address struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Email      string `json:"email"`
}

// Order is a durable record of a completed checkout. Exactly one of UserID
// and GuestEmail identifies the purchaser.
type Order struct {
	ID            string
	OrderNumber   string
	UserID        string
	GuestEmail    string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	Notes         string
	Address       Address
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CustomerEmail returns the address confirmations go to: the shipping
// contact, falling back to the guest email.
func (o *Order) CustomerEmail() string {
	if o.Address.Email != "" {
		return o.Address.Email
	}
	return o.GuestEmail
}

// Item is an immutable price and quantity snapshot of one purchased product.
// Catalog changes after checkout never alter a placed order.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Repository defines persistence operations for orders. Create must persist
// the order and all of its items atomically.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

// Notifier delivers the order confirmation side effect. Implementations must
// be safe to fail: checkout never depends on them.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order) error
}
