// Package notify delivers order confirmation emails. Delivery is always
// best-effort from the checkout workflow's point of view; retries and
// timeouts live here, never in the persistence path.
package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/oakmart/storefront/internal/domain/order"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailNotifier renders and sends order confirmations via a Sender. The
// support address is shown in the email body for customer replies.
type EmailNotifier struct {
	sender  Sender
	support string
}

var _ order.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a notifier advertising the given support address.
func NewEmailNotifier(sender Sender, supportEmail string) *EmailNotifier {
	return &EmailNotifier{sender: sender, support: supportEmail}
}

// OrderPlaced renders the confirmation and hands it to the sender.
func (n *EmailNotifier) OrderPlaced(ctx context.Context, o *order.Order) error {
	to := o.CustomerEmail()
	if to == "" {
		return errors.New("order has no customer email")
	}

	body, err := renderConfirmation(n.support, o)
	if err != nil {
		return errors.Wrap(err, "render confirmation email")
	}

	subject := "Order Confirmation - " + o.OrderNumber
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		return errors.Wrap(err, "send confirmation email")
	}
	return nil
}

// Retrying decorates a Notifier with bounded retry and per-attempt timeout.
// Only the notification side effect is ever retried; duplicate confirmations
// are acceptable, duplicate orders are not.
type Retrying struct {
	next     order.Notifier
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

var _ order.Notifier = (*Retrying)(nil)

// WithRetry wraps next with up to attempts tries, doubling backoff between
// them.
func WithRetry(next order.Notifier, attempts int, backoff, timeout time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{
		next:     next,
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
	}
}

// OrderPlaced tries delivery until one attempt succeeds, the attempts are
// exhausted, or the context is done.
func (r *Retrying) OrderPlaced(ctx context.Context, o *order.Order) error {
	var lastErr error
	delay := r.backoff

	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if r.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		lastErr = r.next.OrderPlaced(attemptCtx, o)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}
	}
	return errors.Wrapf(lastErr, "after %d attempts", r.attempts)
}
