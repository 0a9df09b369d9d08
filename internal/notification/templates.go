package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2d1f; background: #f6f8f3; padding: 24px;">
<div style="max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
<h2 style="color: #2e7d32; margin-top: 0;">Vical Farmart</h2>
{{template "content" .}}
<p style="color: #6b7b6b; font-size: 12px; margin-top: 32px;">Fresh from the farm to your door.</p>
</div>
</body>
</html>{{end}}

{{define "lines"}}
<table style="width: 100%; border-collapse: collapse;">
<tr><th align="left">Item</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.Total}}</td></tr>
{{end}}<tr><td colspan="3" align="right"><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
</table>
{{end}}

{{define "address"}}<p>Delivery address: {{.Street}}, {{.City}} {{.Zip}}</p>{{end}}`

var bodies = map[string]string{
	"welcome": `{{define "content"}}
<p>Hi {{.Name}},</p>
<p>Welcome to Vical Farmart! Your {{.Role}} account is ready.</p>
{{if eq (print .Role) "seller"}}<p>You can now list your produce and start receiving orders from buyers near you.</p>
{{else if eq (print .Role) "courier"}}<p>Once your documents are verified you will start seeing deliveries in your workload.</p>
{{else}}<p>Browse fresh produce from local farmers and have it delivered to your door.</p>{{end}}
{{end}}`,

	"order_alert": `{{define "content"}}
<p>Hi {{.Recipient.Name}},</p>
{{if eq (print .Recipient.Role) "seller"}}<p>{{.CustomerName}} has ordered the following items from you in order #{{.OrderID}}. Please prepare them for dispatch.</p>
{{else}}<p>A new order #{{.OrderID}} was placed by {{.CustomerName}}.</p>{{end}}
{{template "lines" .}}
<p>Payment method: {{.PaymentMethod}}</p>
{{template "address" .}}
{{end}}`,

	"status_update": `{{define "content"}}
<p>Hi {{.Recipient.Name}},</p>
<p>Order #{{.OrderID}} is now <strong>{{.Status}}</strong>.</p>
{{if eq (print .Recipient.Role) "customer"}}{{if eq (print .Status) "Processing"}}<p>Our sellers are preparing your produce.</p>
{{else if eq (print .Status) "Shipped"}}<p>Your order is on its way. Please keep your phone close so the courier can reach you.</p>
{{else if eq (print .Status) "Delivered"}}<p>Your order has been delivered. Enjoy your fresh produce!</p>
{{else if eq (print .Status) "Cancelled"}}<p>Your order has been cancelled. If you already paid, our team will be in touch about your refund.</p>
{{else}}<p>We will keep you posted as your order moves along.</p>{{end}}
{{else}}<p>No action is needed unless the order is assigned to you.</p>{{end}}
{{end}}`,

	"confirmation": `{{define "content"}}
<p>Hi {{.Recipient.Name}},</p>
<p>Thank you for your order! Your payment was received and order #{{.OrderID}} is confirmed.</p>
{{template "lines" .}}
<p>Payment method: {{.PaymentMethod}}{{if .TransactionID}} (transaction {{.TransactionID}}){{end}}</p>
{{template "address" .}}
<p>This email is your receipt.</p>
{{end}}`,

	"invoice": `{{define "content"}}
<p>Hi {{.Recipient.Name}},</p>
<p>Thank you for your order #{{.OrderID}}. The amount below is <strong>due on delivery</strong>.</p>
{{template "lines" .}}
{{template "address" .}}
<p>Please have the payment and the ID card you provided ready when the courier arrives.</p>
<p><em>This is an invoice, not a receipt. No payment has been taken yet.</em></p>
{{end}}`,
}

// templateComposer renders messages from html/template bodies.
type templateComposer struct {
	templates map[string]*template.Template
}

// NewTemplateComposer parses the message templates.
func NewTemplateComposer() (Composer, error) {
	base, err := template.New("layout").Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email layout: %w", err)
	}

	templates := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t, err := template.Must(base.Clone()).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		templates[name] = t
	}
	return &templateComposer{templates: templates}, nil
}

func (c *templateComposer) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := c.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func (c *templateComposer) compose(name, subject string, data interface{}) (Message, error) {
	body, err := c.render(name, data)
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, HTMLBody: body}, nil
}

func (c *templateComposer) Welcome(r Recipient) (Message, error) {
	return c.compose("welcome", WelcomeSubject(), r)
}

func (c *templateComposer) OrderAlert(p OrderPayload) (Message, error) {
	return c.compose("order_alert", OrderAlertSubject(p.OrderID, p.Recipient.Role), p)
}

func (c *templateComposer) StatusUpdate(p OrderPayload) (Message, error) {
	return c.compose("status_update", StatusUpdateSubject(p.OrderID, p.Recipient.Role, p.Status), p)
}

func (c *templateComposer) Confirmation(p OrderPayload) (Message, error) {
	return c.compose("confirmation", ConfirmationSubject(p.OrderID), p)
}

func (c *templateComposer) Invoice(p OrderPayload) (Message, error) {
	return c.compose("invoice", InvoiceSubject(p.OrderID), p)
}
