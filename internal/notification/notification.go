package notification

import (
	"context"

	"farmart/internal/model"
)

// Email is what a Transport delivers.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
}

// Message is a composed subject and body.
type Message struct {
	Subject  string
	HTMLBody string
}

// Transport sends email. Delivery failures are returned to the caller.
type Transport interface {
	Send(ctx context.Context, email Email) error
}

// Recipient is who a message is addressed to.
type Recipient struct {
	ID    string
	Name  string
	Email string
	Role  model.Role
}

// Line is one itemised row in an order email.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice string
	Total     string
}

// OrderPayload is the structured input for order emails.
type OrderPayload struct {
	OrderID       string
	Recipient     Recipient
	CustomerName  string
	Lines         []Line
	Total         string
	Currency      string
	PaymentMethod string
	TransactionID string
	Street        string
	City          string
	Zip           string
	Status        model.Status
}

// Composer turns payloads into messages.
type Composer interface {
	Welcome(r Recipient) (Message, error)
	OrderAlert(p OrderPayload) (Message, error)
	StatusUpdate(p OrderPayload) (Message, error)
	Confirmation(p OrderPayload) (Message, error)
	Invoice(p OrderPayload) (Message, error)
}

// Dispatcher composes and sends the transactional emails.
type Dispatcher interface {
	// SendWelcome greets a new account.
	SendWelcome(ctx context.Context, user *model.User) error

	// SendOrderAlert tells an admin or seller about a new order. Only items
	// are listed, so callers pass a seller's own lines.
	SendOrderAlert(ctx context.Context, order *model.Order, to Recipient, items []model.OrderItem) error

	// SendStatusUpdate reports a status change to to.
	SendStatusUpdate(ctx context.Context, order *model.Order, to Recipient) error

	// SendConfirmation sends the customer a receipt for a paid order.
	SendConfirmation(ctx context.Context, order *model.Order) error

	// SendInvoice sends the customer a pay-on-delivery invoice.
	SendInvoice(ctx context.Context, order *model.Order) error
}
