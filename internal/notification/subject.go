package notification

import (
	"fmt"

	"farmart/internal/model"
)

const brand = "Vical Farmart"

// WelcomeSubject is the subject of the new-account email.
func WelcomeSubject() string {
	return "Welcome to " + brand + "!"
}

// OrderAlertSubject is the new-order subject for an admin or seller.
func OrderAlertSubject(orderID string, role model.Role) string {
	if role == model.RoleSeller {
		return fmt.Sprintf("You have a new order! (#%s)", orderID)
	}
	return fmt.Sprintf("New Order Placed on %s (#%s)", brand, orderID)
}

// StatusUpdateSubject is the status-change subject. Customers get the
// reassurance wording; everyone else gets the operational one.
func StatusUpdateSubject(orderID string, role model.Role, status model.Status) string {
	if role == model.RoleCustomer {
		return fmt.Sprintf("Update on your %s Order #%s", brand, orderID)
	}
	return fmt.Sprintf("Order #%s status has been updated to %s", orderID, status)
}

// ConfirmationSubject is the receipt subject for paid orders.
func ConfirmationSubject(orderID string) string {
	return fmt.Sprintf("Your %s Order Confirmation (#%s)", brand, orderID)
}

// InvoiceSubject is the subject for pay-on-delivery invoices.
func InvoiceSubject(orderID string) string {
	return fmt.Sprintf("Your %s Order Invoice (#%s)", brand, orderID)
}
