package notify

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain/order"
)

type captureSender struct {
	to      string
	subject string
	body    string
	err     error
	calls   int
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.to = to
	c.subject = subject
	c.body = body
	return nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            "o1",
		OrderNumber:   "ORD-20260314-ABCDEF",
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentCashOnDelivery,
		Subtotal:      decimal.RequireFromString("40.00"),
		Tax:           decimal.RequireFromString("2.00"),
		Shipping:      decimal.RequireFromString("9.99"),
		Total:         decimal.RequireFromString("51.99"),
		Address: order.Address{
			Address1:   "1 Main St",
			City:       "Springfield",
			Province:   "IL",
			PostalCode: "62701",
			Country:    "US",
			Email:      "shopper@example.com",
		},
		Items: []order.Item{
			{
				Name:      "Widget <deluxe>",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("10.00"),
				Total:     decimal.RequireFromString("20.00"),
			},
		},
	}
}

func TestOrderPlaced_RendersAndSends(t *testing.T) {
	sender := &captureSender{}
	n := NewEmailNotifier(sender, "store@example.com")

	err := n.OrderPlaced(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", sender.to)
	assert.Equal(t, "Order Confirmation - ORD-20260314-ABCDEF", sender.subject)
	assert.Contains(t, sender.body, "ORD-20260314-ABCDEF")
	assert.Contains(t, sender.body, "$51.99")
	assert.Contains(t, sender.body, "Springfield")
	// html/template must escape item names.
	assert.Contains(t, sender.body, "Widget &lt;deluxe&gt;")
	assert.NotContains(t, sender.body, "<deluxe>")
}

func TestOrderPlaced_NoEmailAddress(t *testing.T) {
	o := testOrder()
	o.Address.Email = ""
	o.GuestEmail = ""
	n := NewEmailNotifier(&captureSender{}, "store@example.com")

	err := n.OrderPlaced(context.Background(), o)
	require.Error(t, err)
}

func TestOrderPlaced_FallsBackToGuestEmail(t *testing.T) {
	o := testOrder()
	o.Address.Email = ""
	o.GuestEmail = "guest@example.com"
	sender := &captureSender{}
	n := NewEmailNotifier(sender, "store@example.com")

	require.NoError(t, n.OrderPlaced(context.Background(), o))
	assert.Equal(t, "guest@example.com", sender.to)
}

type flakyNotifier struct {
	failures int
	calls    int
}

func (f *flakyNotifier) OrderPlaced(_ context.Context, _ *order.Order) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient")
	}
	return nil
}

func TestWithRetry_EventualSuccess(t *testing.T) {
	inner := &flakyNotifier{failures: 2}
	r := WithRetry(inner, 3, time.Millisecond, time.Second)

	err := r.OrderPlaced(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	inner := &flakyNotifier{failures: 10}
	r := WithRetry(inner, 3, time.Millisecond, time.Second)

	err := r.OrderPlaced(context.Background(), testOrder())

	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	inner := &flakyNotifier{failures: 10}
	r := WithRetry(inner, 5, 50*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First attempt runs immediately; the cancelled context stops the backoff
	// wait before the second.
	err := r.OrderPlaced(ctx, testOrder())
	require.Error(t, err)
	assert.LessOrEqual(t, inner.calls, 1)
}
