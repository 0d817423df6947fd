package notify

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/order"
)

// confirmationTmpl is the order confirmation email body. Kept deliberately
// plain: inline styles only, renders everywhere.
var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #2563eb;">Order Confirmed</h1>
  <p>Thank you for your order.</p>

  <h2 style="font-size: 16px;">Order Information</h2>
  <p>
    Order Number: <strong>{{.OrderNumber}}</strong><br>
    Payment Method: {{.PaymentMethod}}<br>
    Status: {{.Status}}
  </p>

  <h2 style="font-size: 16px;">Shipping Address</h2>
  <p>
    {{.Address.Address1}}<br>
    {{if .Address.Address2}}{{.Address.Address2}}<br>{{end}}
    {{.Address.City}}, {{.Address.Province}} {{.Address.PostalCode}}<br>
    {{.Address.Country}}
  </p>

  <h2 style="font-size: 16px;">Items</h2>
  <table style="width: 100%; border-collapse: collapse;">
    <tr>
      <th style="text-align: left; border-bottom: 1px solid #ddd; padding: 8px;">Item</th>
      <th style="text-align: center; border-bottom: 1px solid #ddd; padding: 8px;">Qty</th>
      <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 8px;">Price</th>
      <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 8px;">Total</th>
    </tr>
    {{range .Items}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">${{.UnitPrice}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">${{.Total}}</td>
    </tr>
    {{end}}
  </table>

  <h2 style="font-size: 16px;">Summary</h2>
  <p>
    Subtotal: ${{.Subtotal}}<br>
    Tax: ${{.Tax}}<br>
    Shipping: ${{.Shipping}}<br>
    <strong>Total: ${{.Total}}</strong>
  </p>

  <p style="color: #6b7280; font-size: 12px;">
    Need help with your order? Contact us at {{.SupportEmail}}.
  </p>
</body>
</html>`))

type confirmationItem struct {
	Name      string
	Quantity  int
	UnitPrice string
	Total     string
}

type confirmationData struct {
	OrderNumber   string
	PaymentMethod order.PaymentMethod
	Status        order.Status
	Address       order.Address
	Items         []confirmationItem
	Subtotal      string
	Tax           string
	Shipping      string
	Total         string
	SupportEmail  string
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func renderConfirmation(supportEmail string, o *order.Order) (string, error) {
	items := make([]confirmationItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = confirmationItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			Total:     money(it.Total),
		}
	}

	var sb strings.Builder
	err := confirmationTmpl.Execute(&sb, confirmationData{
		OrderNumber:   o.OrderNumber,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		Address:       o.Address,
		Items:         items,
		Subtotal:      money(o.Subtotal),
		Tax:           money(o.Tax),
		Shipping:      money(o.Shipping),
		Total:         money(o.Total),
		SupportEmail:  supportEmail,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
