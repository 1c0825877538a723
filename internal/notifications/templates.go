package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gearhub-backend/pkg/enums"
)

var mailTemplates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"money":  formatMoney,
	"status": func(s enums.OrderStatus) string { return s.Label() },
}).Parse(`
{{define "order_confirmation"}}<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h1>{{.Store}}</h1>
<p>Hi {{.Name}},</p>
<p>Thank you for your order! Order <strong>{{.Number}}</strong> has been received and is being processed.</p>
<table style="width: 100%; text-align: right;">
<tr><td>Subtotal</td><td>{{money .Subtotal .Currency}}</td></tr>
{{if gt .Discount 0}}<tr><td>Discount{{if .Coupon}} ({{.Coupon}}){{end}}</td><td>-{{money .Discount .Currency}}</td></tr>{{end}}
<tr><td>Shipping</td><td>{{money .Shipping .Currency}}</td></tr>
<tr><td>Tax</td><td>{{money .Tax .Currency}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>{{money .Total .Currency}}</strong></td></tr>
</table>
<p><a href="{{.Link}}">View your order</a></p>
<p>Questions? Write to {{.Support}}.</p>
</body></html>{{end}}

{{define "admin_new_order"}}<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>New order {{.Number}}</h2>
<p>{{.Name}} &lt;{{.Email}}&gt; placed an order of {{.Items}} item(s) for {{money .Total .Currency}} via {{.Provider}}.</p>
<p><a href="{{.Link}}">Open in admin</a></p>
</body></html>{{end}}

{{define "order_status"}}<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h1>{{.Store}}</h1>
<p>Your order <strong>{{.Number}}</strong> is now <strong>{{status .Status}}</strong>.</p>
<p><a href="{{.Link}}">Track your order</a></p>
</body></html>{{end}}

{{define "contact_message"}}<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif;">
<h2>{{.Subject}}</h2>
<p>From {{.Name}} &lt;{{.Email}}&gt;</p>
<pre style="white-space: pre-wrap;">{{.Message}}</pre>
</body></html>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatMoney renders minor units as "12.34 USD".
func formatMoney(minor int64, currency string) string {
	amount := decimal.New(minor, -2).StringFixed(2)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "USD" || currency == "" {
		return "$" + amount
	}
	return amount + " " + currency
}
