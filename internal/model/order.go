package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the payment method recorded on an order.
type PaymentMethod string

const (
	PaymentMethodOnline        PaymentMethod = "Online Payment"
	PaymentMethodPayOnDelivery PaymentMethod = "Pay on Delivery"
)

// MultipleSellersName is the seller display name of mixed-seller orders.
const MultipleSellersName = "Multiple Sellers"

const (
	defaultOrderListLimit = 50
	maxOrderListLimit     = 500
)

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerID      string          `json:"customerId" db:"customer_id"`
	CustomerName    string          `json:"customerName" db:"customer_name"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone   string          `json:"customerPhone" db:"customer_phone"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Currency        string          `json:"currency" db:"currency"`
	Status          Status          `json:"status" db:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	SellerID        *string         `json:"sellerId,omitempty" db:"seller_id"`
	SellerName      string          `json:"sellerName,omitempty" db:"seller_name"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty"`
	TxRef           *string         `json:"txRef,omitempty" db:"tx_ref"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ProductID  string          `json:"productId" db:"product_id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Image      string          `json:"image,omitempty" db:"image"`
	SellerID   string          `json:"sellerId" db:"seller_id"`
	SellerName string          `json:"sellerName" db:"seller_name"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is where the order is delivered.
// IDCardNumber is only collected for pay-on-delivery orders.
type ShippingAddress struct {
	Street       string `json:"street" db:"street"`
	City         string `json:"city" db:"city"`
	Zip          string `json:"zip" db:"zip"`
	IDCardNumber string `json:"idCardNumber,omitempty" db:"id_card_number"`
}

// PaymentDetails records the gateway's view of an online payment.
type PaymentDetails struct {
	TransactionID string `json:"transactionId" db:"transaction_id"`
	Status        string `json:"status" db:"payment_status"`
	Gateway       string `json:"gateway" db:"payment_gateway"`
}

// OrderItemsFromCart converts cart lines into order lines.
func OrderItemsFromCart(items []CartItem) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Image:      item.Image,
			SellerID:   item.SellerID,
			SellerName: item.SellerName,
		}
	}
	return out
}

// TotalOf returns Σ price × quantity. No shipping fee is applied.
func TotalOf(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// SellerGroup is the slice of an order's items belonging to one seller.
type SellerGroup struct {
	SellerID   string
	SellerName string
	Items      []OrderItem
}

// Total returns the group's share of the order amount.
func (g SellerGroup) Total() decimal.Decimal {
	return TotalOf(g.Items)
}

// GroupBySeller splits items per seller, in order of first appearance.
func GroupBySeller(items []OrderItem) []SellerGroup {
	var groups []SellerGroup
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.SellerID]
		if !ok {
			i = len(groups)
			index[item.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: item.SellerID, SellerName: item.SellerName})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// AttributeSeller sets the single-seller fields. Orders spanning more than one
// seller carry no seller id and the "Multiple Sellers" display name.
func (o *Order) AttributeSeller() {
	groups := GroupBySeller(o.Items)
	switch len(groups) {
	case 0:
		o.SellerID = nil
		o.SellerName = ""
	case 1:
		id := groups[0].SellerID
		o.SellerID = &id
		o.SellerName = groups[0].SellerName
	default:
		o.SellerID = nil
		o.SellerName = MultipleSellersName
	}
}

// HasSeller reports whether any line belongs to sellerID.
func (o *Order) HasSeller(sellerID string) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID string
	SellerID   string
	Statuses   []Status
	Limit      int
	Offset     int
}

// Normalise clamps pagination to sane bounds.
func (f *OrderFilter) Normalise() {
	if f.Limit <= 0 {
		f.Limit = defaultOrderListLimit
	}
	if f.Limit > maxOrderListLimit {
		f.Limit = maxOrderListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// StatusUpdateRequest is the payload for changing an order's status.
type StatusUpdateRequest struct {
	Status Status `json:"status"`
}

// StatusChange is one row of an order's status history.
type StatusChange struct {
	OrderID   uuid.UUID `json:"orderId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorID   string    `json:"actorId"`
	ActorRole Role      `json:"actorRole"`
	ChangedAt time.Time `json:"changedAt"`
}
