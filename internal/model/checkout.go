package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutState is a step of the checkout workflow.
type CheckoutState string

const (
	CheckoutIdle            CheckoutState = "Idle"
	CheckoutValidating      CheckoutState = "Validating"
	CheckoutAwaitingPayment CheckoutState = "AwaitingPayment"
	CheckoutPersisting      CheckoutState = "Persisting"
	CheckoutNotifying       CheckoutState = "Notifying"
	CheckoutDone            CheckoutState = "Done"
	CheckoutFailed          CheckoutState = "Failed"
)

// IsTerminal reports whether the attempt has finished.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutDone || s == CheckoutFailed
}

// PaymentChoice is the payment option picked on the checkout form.
type PaymentChoice string

const (
	PaymentChoiceOnline PaymentChoice = "online"
	PaymentChoiceCOD    PaymentChoice = "cod"
)

// Method maps the form choice to the method stored on the order.
func (c PaymentChoice) Method() PaymentMethod {
	if c == PaymentChoiceCOD {
		return PaymentMethodPayOnDelivery
	}
	return PaymentMethodOnline
}

const minIDCardLength = 5

// CheckoutRequest is the checkout form submission.
type CheckoutRequest struct {
	Street        string        `json:"street"`
	City          string        `json:"city"`
	Zip           string        `json:"zip"`
	Phone         string        `json:"phone"` // optional, defaults to the profile phone
	IDCardNumber  string        `json:"idCardNumber"`
	PaymentMethod PaymentChoice `json:"paymentMethod"`
	Platform      string        `json:"platform"` // "web" or "native"
}

// Validate checks the shipping form. The ID card number is only required
// for cash-on-delivery.
func (r *CheckoutRequest) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(r.Street) == "" {
		v.Add("street", "is required")
	}
	if strings.TrimSpace(r.City) == "" {
		v.Add("city", "is required")
	}
	if strings.TrimSpace(r.Zip) == "" {
		v.Add("zip", "is required")
	}
	switch r.PaymentMethod {
	case PaymentChoiceCOD:
		if len(strings.TrimSpace(r.IDCardNumber)) < minIDCardLength {
			v.Add("idCardNumber", "must be at least 5 characters for pay on delivery")
		}
	case PaymentChoiceOnline:
	default:
		v.Add("paymentMethod", "must be online or cod")
	}
	return v.OrNil()
}

// Shipping returns the address part of the form.
func (r *CheckoutRequest) Shipping() ShippingAddress {
	addr := ShippingAddress{
		Street: strings.TrimSpace(r.Street),
		City:   strings.TrimSpace(r.City),
		Zip:    strings.TrimSpace(r.Zip),
	}
	if r.PaymentMethod == PaymentChoiceCOD {
		addr.IDCardNumber = strings.TrimSpace(r.IDCardNumber)
	}
	return addr
}

// Customer identifies who is checking out.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// CheckoutResult is the outcome of a checkout attempt. It is also the record
// kept for polling an online attempt by its transaction reference.
type CheckoutResult struct {
	State       CheckoutState   `json:"state"`
	CustomerID  string          `json:"customerId"`
	TxRef       string          `json:"txRef,omitempty"`
	OrderID     *uuid.UUID      `json:"orderId,omitempty"`
	OrderStatus Status          `json:"orderStatus,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	CheckoutURL string          `json:"checkoutUrl,omitempty"`
	Message     string          `json:"message,omitempty"`
	Warning     string          `json:"warning,omitempty"`
	RedirectTo  string          `json:"redirectTo,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
