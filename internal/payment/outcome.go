package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the normalised result of a payment attempt.
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// Outcome is what both payment flows resolve to.
type Outcome struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	TxRef         string `json:"tx_ref,omitempty"`
	Reason        string `json:"-"`
}

// Succeeded reports whether the payment went through.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccessful
}

// Normalize maps a provider status string onto Status. Anything that is not
// an explicit success or cancellation counts as a failure.
func Normalize(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "successful", "completed":
		return StatusSuccessful
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// Customer is the contact block sent to the hosted checkout.
type Customer struct {
	Email string
	Name  string
	Phone string
}

// Request describes one payment to collect.
type Request struct {
	TxRef    string
	Amount   decimal.Decimal
	Currency string
	Customer Customer
	Title    string
	Platform string
}

// NewTxRef returns a fresh UUID-prefixed transaction reference.
func NewTxRef() string {
	return uuid.NewString() + "-" + strconv.FormatInt(timeNow().UnixMilli(), 10)
}

var timeNow = time.Now
