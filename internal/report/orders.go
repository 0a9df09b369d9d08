package report

import (
	"fmt"
	"io"
	"strings"

	"farmart/internal/model"

	"github.com/tealeg/xlsx"
)

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var orderHeaders = []string{
	"Order ID", "Created At", "Customer", "Customer Email", "Customer Phone",
	"Status", "Payment Method", "Transaction ID", "Seller", "Currency",
	"Total Amount", "Street", "City", "Zip", "Items",
}

var itemHeaders = []string{
	"Order ID", "Product ID", "Product", "Seller ID", "Seller", "Quantity", "Unit Price", "Line Total",
}

// WriteOrders renders orders as a workbook with an Orders sheet and an Items sheet.
func WriteOrders(w io.Writer, orders []model.Order) error {
	file := xlsx.NewFile()

	ordersSheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("failed to create orders sheet: %w", err)
	}
	itemsSheet, err := file.AddSheet("Items")
	if err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	addRow(ordersSheet, orderHeaders...)
	addRow(itemsSheet, itemHeaders...)

	for _, o := range orders {
		txID := ""
		if o.PaymentDetails != nil {
			txID = o.PaymentDetails.TransactionID
		}

		names := make([]string, len(o.Items))
		for i, item := range o.Items {
			names[i] = fmt.Sprintf("%s x%d", item.Name, item.Quantity)

			addRow(itemsSheet,
				o.ID.String(),
				item.ProductID,
				item.Name,
				item.SellerID,
				item.SellerName,
				fmt.Sprint(item.Quantity),
				item.Price.StringFixed(2),
				item.LineTotal().StringFixed(2),
			)
		}

		addRow(ordersSheet,
			o.ID.String(),
			o.CreatedAt.UTC().Format(timeLayout),
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			string(o.Status),
			string(o.PaymentMethod),
			txID,
			o.SellerName,
			o.Currency,
			o.TotalAmount.StringFixed(2),
			o.ShippingAddress.Street,
			o.ShippingAddress.City,
			o.ShippingAddress.Zip,
			strings.Join(names, ", "),
		)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}
