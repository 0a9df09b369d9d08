package model

import (
	"sort"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeValidation              = "VALIDATION_FAILED"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeEmptyCart               = "EMPTY_CART"
	ErrCodeMixedCurrency           = "MIXED_CURRENCY"
	ErrCodeUnsupportedCurrency     = "UNSUPPORTED_CURRENCY"
	ErrCodeInvalidStatus           = "INVALID_STATUS"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeStatusConflict          = "STATUS_CONFLICT"
	ErrCodeCheckoutInProgress      = "CHECKOUT_IN_PROGRESS"
	ErrCodeCheckoutNotFound        = "CHECKOUT_NOT_FOUND"
	ErrCodeDuplicateOrder          = "DUPLICATE_ORDER"
	ErrCodeOrderNotSaved           = "ORDER_NOT_SAVED"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled         = "ACCOUNT_DISABLED"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInternalError           = "INTERNAL_ERROR"
	ErrCodeUnsupportedFileType     = "UNSUPPORTED_FILE_TYPE"

	// Codes shared with the admin user-creation endpoint contract.
	ErrCodeEmailExists  = "email-already-exists"
	ErrCodeTokenExpired = "id-token-expired"
	ErrCodeTokenInvalid = "invalid-id-token"
	ErrCodeTokenMissing = "missing-id-token"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound         = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound           = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrUserNotFound            = NewDomainError(ErrCodeUserNotFound, "User not found")
	ErrInvalidQuantity         = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrEmptyCart               = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrMixedCurrency           = NewDomainError(ErrCodeMixedCurrency, "Cart items must share a single currency")
	ErrUnsupportedCurrency     = NewDomainError(ErrCodeUnsupportedCurrency, "Currency is not supported by the payment provider")
	ErrInvalidStatus           = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidStatusTransition, "Status change is not allowed")
	ErrStatusConflict          = NewDomainError(ErrCodeStatusConflict, "Order status was changed by someone else")
	ErrCheckoutInProgress      = NewDomainError(ErrCodeCheckoutInProgress, "A checkout is already in progress")
	ErrCheckoutNotFound        = NewDomainError(ErrCodeCheckoutNotFound, "Checkout attempt not found")
	ErrDuplicateOrder          = NewDomainError(ErrCodeDuplicateOrder, "An order already exists for this payment")
	ErrOrderNotSaved           = NewDomainError(ErrCodeOrderNotSaved, "There was a problem saving your order. Your cart has been kept.")
	ErrEmailExists             = NewDomainError(ErrCodeEmailExists, "The email address is already in use by another account")
	ErrInvalidCredentials      = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrAccountDisabled         = NewDomainError(ErrCodeAccountDisabled, "Account is disabled")
	ErrForbidden               = NewDomainError(ErrCodeForbidden, "You are not allowed to perform this action")
	ErrUnsupportedFileType     = NewDomainError(ErrCodeUnsupportedFileType, "Only JPEG, PNG, GIF, WebP and PDF files can be uploaded")
	ErrTokenMissing            = NewDomainError(ErrCodeTokenMissing, "Authentication token is required")
	ErrTokenExpired            = NewDomainError(ErrCodeTokenExpired, "Authentication token has expired")
	ErrTokenInvalid            = NewDomainError(ErrCodeTokenInvalid, "Authentication token is invalid")
)

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty validation error.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failure for the given field.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
