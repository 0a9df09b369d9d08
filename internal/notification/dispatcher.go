package notification

import (
	"context"
	"fmt"

	"farmart/internal/model"
	"farmart/internal/payment"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// dispatcher implements Dispatcher.
type dispatcher struct {
	composer  Composer
	transport Transport
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over composer and transport.
func NewDispatcher(composer Composer, transport Transport, logger zerolog.Logger) Dispatcher {
	return &dispatcher{
		composer:  composer,
		transport: transport,
		logger:    logger.With().Str("component", "notification").Logger(),
	}
}

func money(currency string, amount decimal.Decimal) string {
	return payment.Symbol(currency) + amount.StringFixed(2)
}

// payload builds the template input for order emails.
func payload(order *model.Order, to Recipient, items []model.OrderItem) OrderPayload {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: money(order.Currency, item.Price),
			Total:     money(order.Currency, item.LineTotal()),
		}
	}

	p := OrderPayload{
		OrderID:       order.ID.String(),
		Recipient:     to,
		CustomerName:  order.CustomerName,
		Lines:         lines,
		Total:         money(order.Currency, model.TotalOf(items)),
		Currency:      order.Currency,
		PaymentMethod: string(order.PaymentMethod),
		Street:        order.ShippingAddress.Street,
		City:          order.ShippingAddress.City,
		Zip:           order.ShippingAddress.Zip,
		Status:        order.Status,
	}
	if order.PaymentDetails != nil {
		p.TransactionID = order.PaymentDetails.TransactionID
	}
	return p
}

func customerOf(order *model.Order) Recipient {
	return Recipient{ID: order.CustomerID, Name: order.CustomerName, Email: order.CustomerEmail, Role: model.RoleCustomer}
}

func (d *dispatcher) send(ctx context.Context, kind, to string, msg Message, err error) error {
	if err != nil {
		return fmt.Errorf("failed to compose %s email: %w", kind, err)
	}
	if to == "" {
		return fmt.Errorf("failed to send %s email: recipient has no address", kind)
	}

	if err := d.transport.Send(ctx, Email{To: to, Subject: msg.Subject, HTMLBody: msg.HTMLBody}); err != nil {
		d.logger.Error().Err(err).Str("kind", kind).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	d.logger.Info().Str("kind", kind).Str("to", to).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// SendWelcome greets a new account.
func (d *dispatcher) SendWelcome(ctx context.Context, user *model.User) error {
	to := Recipient{ID: user.ID, Name: user.DisplayName, Email: user.Email, Role: user.Role}
	msg, err := d.composer.Welcome(to)
	return d.send(ctx, "welcome", to.Email, msg, err)
}

// SendOrderAlert tells an admin or seller about a new order.
func (d *dispatcher) SendOrderAlert(ctx context.Context, order *model.Order, to Recipient, items []model.OrderItem) error {
	msg, err := d.composer.OrderAlert(payload(order, to, items))
	return d.send(ctx, "order_alert", to.Email, msg, err)
}

// SendStatusUpdate reports a status change.
func (d *dispatcher) SendStatusUpdate(ctx context.Context, order *model.Order, to Recipient) error {
	items := order.Items
	if to.Role == model.RoleSeller {
		items = itemsOf(order.Items, to)
	}
	msg, err := d.composer.StatusUpdate(payload(order, to, items))
	return d.send(ctx, "status_update", to.Email, msg, err)
}

// SendConfirmation sends the customer a receipt.
func (d *dispatcher) SendConfirmation(ctx context.Context, order *model.Order) error {
	to := customerOf(order)
	msg, err := d.composer.Confirmation(payload(order, to, order.Items))
	return d.send(ctx, "confirmation", to.Email, msg, err)
}

// SendInvoice sends the customer a pay-on-delivery invoice.
func (d *dispatcher) SendInvoice(ctx context.Context, order *model.Order) error {
	to := customerOf(order)
	msg, err := d.composer.Invoice(payload(order, to, order.Items))
	return d.send(ctx, "invoice", to.Email, msg, err)
}

// itemsOf keeps the lines a seller recipient is responsible for.
func itemsOf(items []model.OrderItem, to Recipient) []model.OrderItem {
	var out []model.OrderItem
	for _, item := range items {
		if item.SellerID == to.ID {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}
