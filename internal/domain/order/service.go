package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakmart/storefront/internal/domain/pricing"
	"github.com/oakmart/storefront/internal/domain/product"
)

// priceTolerance is the maximum disagreement accepted between a
// client-echoed figure and the server-computed one.
var priceTolerance = decimal.RequireFromString("0.01")

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level problems detected before any side
// effect runs.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid order request: " + strings.Join(msgs, "; ")
}

// ProductNotFoundError indicates a requested product does not exist or is
// not purchasable.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates a line asks for more units than the
// catalog currently has.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s: requested %d, only %d in stock",
		e.ProductID, e.Requested, e.Available)
}

// PriceMismatchError indicates the client-echoed totals disagree with the
// server-computed quote beyond tolerance.
type PriceMismatchError struct {
	Expected decimal.Decimal
	Got      decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: server computed %s, client sent %s",
		e.Expected.StringFixed(2), e.Got.StringFixed(2))
}

// LineInput is one requested order line. Prices are looked up server-side.
type LineInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest is the full checkout input.
type PlaceOrderRequest struct {
	Items         []LineInput
	Address       Address
	PaymentMethod PaymentMethod
	Notes         string
	UserID        string
	GuestEmail    string
	// ClientQuote carries the totals the client displayed, if any. They are
	// verified against the server-side quote, never stored as-is.
	ClientQuote pricing.Quote
	// IdempotencyKey deduplicates checkout retries. Optional.
	IdempotencyKey string
}

// PlaceOrderResult is the outcome of a checkout. Replayed is true when an
// idempotency key matched a previously created order.
type PlaceOrderResult struct {
	Order    *Order
	Replayed bool
}

// IdempotencyStore reserves checkout attempts. Reserve either claims the key
// for orderID (reserved=true) or returns the order ID that already holds it.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, orderID string) (existingID string, reserved bool, err error)
	Release(ctx context.Context, key string) error
}

// Service implements the order creation workflow and order retrieval.
type Service struct {
	products product.Repository
	orders   Repository
	numbers  *NumberGenerator
	policy   pricing.Policy
	idem     IdempotencyStore
	notifier Notifier

	notifyTimeout time.Duration
}

// NewService wires the checkout workflow. idem and notifier may be nil, which
// disables idempotency protection and confirmation emails respectively.
func NewService(
	products product.Repository,
	orders Repository,
	policy pricing.Policy,
	idem IdempotencyStore,
	notifier Notifier,
) *Service {
	return &Service{
		products:      products,
		orders:        orders,
		numbers:       NewNumberGenerator(orders),
		policy:        policy,
		idem:          idem,
		notifier:      notifier,
		notifyTimeout: 10 * time.Second,
	}
}

// PlaceOrder validates the request, reprices it from the catalog, persists
// the order with its items in one transaction, and sends the confirmation
// email best-effort.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	orderID := uuid.New().String()

	// Claim the idempotency key before any persistence so a concurrent retry
	// observes the claim instead of creating a second order.
	if s.idem != nil && req.IdempotencyKey != "" {
		prev, err := s.claimKey(ctx, req.IdempotencyKey, orderID)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return &PlaceOrderResult{Order: prev, Replayed: true}, nil
		}
	}

	o, err := s.buildOrder(ctx, orderID, req)
	if err != nil {
		s.releaseClaim(ctx, req.IdempotencyKey)
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		s.releaseClaim(ctx, req.IdempotencyKey)
		return nil, errors.Wrap(err, "create order")
	}

	s.sendConfirmation(ctx, o)

	return &PlaceOrderResult{Order: o}, nil
}

// buildOrder reprices the request against the catalog and assembles the
// order aggregate. No side effects.
func (s *Service) buildOrder(ctx context.Context, orderID string, req PlaceOrderRequest) (*Order, error) {
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, len(req.Items))
	lines := make([]pricing.Line, len(req.Items))
	for i, in := range req.Items {
		p, ok := byID[in.ProductID]
		if !ok || p.Status != product.StatusActive {
			return nil, &ProductNotFoundError{ProductID: in.ProductID}
		}
		if in.Quantity > p.Stock {
			return nil, &InsufficientStockError{
				ProductID: in.ProductID,
				Requested: in.Quantity,
				Available: p.Stock,
			}
		}

		items[i] = Item{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
			Total:     p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
		}
		lines[i] = pricing.Line{UnitPrice: p.Price, Quantity: in.Quantity}
	}

	quote := s.policy.Compute(lines)
	if !req.ClientQuote.IsZero() && !quote.Matches(req.ClientQuote, priceTolerance) {
		return nil, &PriceMismatchError{Expected: quote.Total, Got: req.ClientQuote.Total}
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "generate order number")
	}

	now := time.Now().UTC()
	return &Order{
		ID:            orderID,
		OrderNumber:   number,
		UserID:        req.UserID,
		GuestEmail:    req.GuestEmail,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		Notes:         req.Notes,
		Address:       req.Address,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// sendConfirmation delivers the confirmation email. Failures are logged and
// swallowed: the order is already durable and must report success.
func (s *Service) sendConfirmation(ctx context.Context, o *Order) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.OrderPlaced(nctx, o); err != nil {
		zctx.From(ctx).Error("Order confirmation failed",
			zap.String("order_id", o.ID),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
}

// claimKey reserves key for orderID. A non-nil order means the key already
// belongs to a completed checkout and that order should be replayed. A claim
// whose order never persisted (a crash between the reservation and the
// insert) is stale: it is released and the reservation retried.
func (s *Service) claimKey(ctx context.Context, key, orderID string) (*Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existingID, reserved, err := s.idem.Reserve(ctx, key, orderID)
		if err != nil {
			return nil, errors.Wrap(err, "reserve idempotency key")
		}
		if reserved {
			return nil, nil
		}

		prev, err := s.orders.GetByID(ctx, existingID)
		if err == nil {
			return prev, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "load replayed order")
		}
		if err := s.idem.Release(ctx, key); err != nil {
			return nil, errors.Wrap(err, "release stale idempotency claim")
		}
	}
	return nil, errors.New("idempotency key contested by concurrent checkout")
}

func (s *Service) releaseClaim(ctx context.Context, key string) {
	if s.idem == nil || key == "" {
		return
	}
	if err := s.idem.Release(ctx, key); err != nil {
		zctx.From(ctx).Warn("Idempotency key release failed", zap.Error(err))
	}
}

// GetOrder fetches one order with its items. The caller must pass a
// well-formed order ID; purchaser lookups go through ListOrdersByUser.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrdersByUser returns all orders for a purchaser, newest first, each
// with items attached.
func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func validateRequest(req PlaceOrderRequest) error {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Message: msg})
	}

	if len(req.Items) == 0 {
		add("items", "at least one item is required")
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			add(fmt.Sprintf("items[%d].productId", i), "required")
		}
		if item.Quantity < 1 {
			add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}

	switch {
	case req.UserID == "" && req.GuestEmail == "":
		add("userId", "either userId or guestEmail is required")
	case req.UserID != "" && req.GuestEmail != "":
		add("userId", "userId and guestEmail are mutually exclusive")
	}

	if !req.PaymentMethod.Valid() {
		add("paymentMethod", `must be "stripe" or "cod"`)
	}

	if req.Address.Address1 == "" {
		add("address.address1", "required")
	}
	if req.Address.City == "" {
		add("address.city", "required")
	}
	if req.Address.Province == "" {
		add("address.province", "required")
	}
	if req.Address.PostalCode == "" {
		add("address.postalCode", "required")
	}
	if req.Address.Country == "" {
		add("address.country", "required")
	}
	if req.Address.Email == "" {
		add("address.email", "required")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
