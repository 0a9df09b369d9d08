package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_AttributeSeller(t *testing.T) {
	tests := []struct {
		name           string
		items          []CartItem
		expectSellerID *string
		expectName     string
	}{
		{
			name:           "Single seller",
			items:          []CartItem{item("A", "S1", "3.99", 2), item("B", "S1", "1.00", 1)},
			expectSellerID: strPtr("S1"),
			expectName:     "Seller S1",
		},
		{
			name:           "Multiple sellers",
			items:          []CartItem{item("A", "S1", "3.99", 2), item("B", "S2", "1.00", 1)},
			expectSellerID: nil,
			expectName:     MultipleSellersName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Items: OrderItemsFromCart(tt.items)}
			order.AttributeSeller()

			assert.Equal(t, tt.expectSellerID, order.SellerID)
			assert.Equal(t, tt.expectName, order.SellerName)
		})
	}
}

func TestTotalOf(t *testing.T) {
	items := OrderItemsFromCart([]CartItem{item("A", "S1", "3.99", 2)})
	assert.True(t, decimal.RequireFromString("7.98").Equal(TotalOf(items)))
}

func TestGroupBySeller(t *testing.T) {
	items := OrderItemsFromCart([]CartItem{
		item("A", "S1", "1.00", 1),
		item("B", "S2", "2.00", 1),
		item("C", "S1", "3.00", 2),
	})

	groups := GroupBySeller(items)

	require.Len(t, groups, 2)
	assert.Equal(t, "S1", groups[0].SellerID)
	assert.Len(t, groups[0].Items, 2)
	assert.True(t, decimal.RequireFromString("7").Equal(groups[0].Total()))
	assert.Equal(t, "S2", groups[1].SellerID)
	assert.Len(t, groups[1].Items, 1)
}

func TestOrderFilter_Normalise(t *testing.T) {
	f := OrderFilter{Limit: 0, Offset: -3}
	f.Normalise()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = OrderFilter{Limit: 10_000}
	f.Normalise()
	assert.Equal(t, 500, f.Limit)
}

func strPtr(s string) *string { return &s }
