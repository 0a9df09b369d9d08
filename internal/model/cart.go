package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a customer's cart.
type CartItem struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	Image      string          `json:"image,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Quantity   int             `json:"quantity"`
	SellerID   string          `json:"sellerId"`
	SellerName string          `json:"sellerName"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the persisted snapshot of a customer's selected products.
type Cart struct {
	CustomerID string     `json:"customerId"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewCart returns an empty cart for the customer.
func NewCart(customerID string) *Cart {
	return &Cart{CustomerID: customerID, Items: []CartItem{}}
}

// Add merges the product into an existing line by summing quantities,
// or appends a new line.
func (c *Cart) Add(item CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity sets the quantity of an existing line.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrProductNotFound
}

// Remove drops the line for productID. Removing a missing line is a no-op.
func (c *Cart) Remove(productID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// Count is the sum of all quantities.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Subtotal is Σ price × quantity.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Currency returns the single currency shared by all lines.
func (c *Cart) Currency() (string, error) {
	currency := ""
	for _, item := range c.Items {
		if currency == "" {
			currency = item.Currency
			continue
		}
		if item.Currency != currency {
			return "", ErrMixedCurrency
		}
	}
	return currency, nil
}

// CartView is the cart plus its derived values, as returned by the API.
type CartView struct {
	Cart
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// View builds the API representation of the cart.
func (c *Cart) View() CartView {
	return CartView{Cart: *c, Count: c.Count(), Subtotal: c.Subtotal()}
}

// AddToCartRequest is the payload for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest is the payload for changing a line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
