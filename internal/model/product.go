package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a produce listing offered by a seller.
type Product struct {
	ID          string          `json:"id" db:"id"`
	SellerID    string          `json:"sellerId" db:"seller_id"`
	SellerName  string          `json:"sellerName" db:"seller_name"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Currency    string          `json:"currency" db:"currency"`
	Category    string          `json:"category" db:"category"`
	Image       string          `json:"image,omitempty" db:"image"`
	Active      bool            `json:"active" db:"active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductRequest is the payload sellers send to create or edit a listing.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// Validate checks required listing fields.
func (r *ProductRequest) Validate() error {
	v := NewValidationError()
	if r.Name == "" {
		v.Add("name", "is required")
	}
	if !r.Price.IsPositive() {
		v.Add("price", "must be greater than zero")
	}
	if len(r.Currency) != 3 {
		v.Add("currency", "must be a three letter code")
	}
	if r.Category == "" {
		v.Add("category", "is required")
	}
	return v.OrNil()
}
