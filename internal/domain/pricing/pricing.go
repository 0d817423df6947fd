// Package pricing computes authoritative order totals from catalog prices.
// Client-supplied figures are never trusted; the checkout workflow recomputes
// every quote through this package.
package pricing

import "github.com/shopspring/decimal"

// Policy holds the storefront pricing rules.
type Policy struct {
	// TaxRate is the fraction of the subtotal charged as tax, e.g. 0.05.
	TaxRate decimal.Decimal
	// ShippingFee is the flat shipping charge per order.
	ShippingFee decimal.Decimal
	// FreeShippingAt waives the shipping fee for subtotals at or above this
	// threshold. Zero disables free shipping.
	FreeShippingAt decimal.Decimal
}

// Line is a priced order line: unit price times quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is a complete price breakdown. Total always equals
// Subtotal + Tax + Shipping; all figures are rounded to two decimal places.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives the quote for the given lines under the policy.
func (p Policy) Compute(lines []Line) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := p.ShippingFee
	if p.FreeShippingAt.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingAt) {
		shipping = decimal.Zero
	}
	shipping = shipping.Round(2)

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Matches reports whether a client-echoed quote agrees with this one within
// the tolerance. A zero-value candidate field is treated as "not supplied"
// only when all four figures are zero.
func (q Quote) Matches(other Quote, tolerance decimal.Decimal) bool {
	within := func(a, b decimal.Decimal) bool {
		return a.Sub(b).Abs().LessThanOrEqual(tolerance)
	}
	return within(q.Subtotal, other.Subtotal) &&
		within(q.Tax, other.Tax) &&
		within(q.Shipping, other.Shipping) &&
		within(q.Total, other.Total)
}

// IsZero reports whether no figure is set, i.e. the client sent no totals.
func (q Quote) IsZero() bool {
	return q.Subtotal.IsZero() && q.Tax.IsZero() && q.Shipping.IsZero() && q.Total.IsZero()
}
