package service

import (
	"context"
	"io"

	"farmart/internal/auth"
	"farmart/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for the produce catalogue.
type ProductService interface {
	// GetAll retrieves active listings with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single listing by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// ListMine lists the caller's own listings.
	ListMine(ctx context.Context, seller *auth.Principal) ([]model.Product, error)

	Create(ctx context.Context, seller *auth.Principal, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, seller *auth.Principal, id string, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, seller *auth.Principal, id string) error
}

// CartService defines operations on a customer's cart. Prices, currency and
// seller are always taken from the catalogue.
type CartService interface {
	Get(ctx context.Context, customerID string) (*model.Cart, error)
	AddItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error)
	UpdateItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID string) (*model.Cart, error)
	Clear(ctx context.Context, customerID string) error
}

// CheckoutService runs the checkout workflow.
type CheckoutService interface {
	// Submit validates the form and places the order. Pay-on-delivery attempts
	// finish before Submit returns. Online attempts return in AwaitingPayment
	// with the hosted checkout URL and complete in the background.
	Submit(ctx context.Context, customerID string, req *model.CheckoutRequest) (*model.CheckoutResult, error)

	// Status returns the latest state of the customer's attempt.
	Status(ctx context.Context, customerID, txRef string) (*model.CheckoutResult, error)

	// Shutdown waits for background attempts to finish or ctx to end.
	Shutdown(ctx context.Context) error
}

// OrderService defines operations on placed orders.
type OrderService interface {
	// List returns the orders visible to the actor.
	List(ctx context.Context, actor *auth.Principal, filter model.OrderFilter) ([]model.Order, error)

	// Get retrieves one order the actor may see.
	Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error)

	// History lists the status changes of an order the actor may see.
	History(ctx context.Context, actor *auth.Principal, id uuid.UUID) ([]model.StatusChange, error)

	// UpdateStatus applies a status change allowed for the actor's role.
	UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, next model.Status) (*model.Order, error)

	// CourierWorkload lists orders awaiting or out for delivery.
	CourierWorkload(ctx context.Context, actor *auth.Principal) ([]model.Order, error)

	// Export writes the filtered orders as a spreadsheet.
	Export(ctx context.Context, actor *auth.Principal, filter model.OrderFilter, w io.Writer) error
}

// UserService defines account and profile operations.
type UserService interface {
	Register(ctx context.Context, data *model.UserData) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateMe(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error)

	// AdminCreate creates a user of any role on behalf of the admin whose
	// token is carried in the request.
	AdminCreate(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)

	List(ctx context.Context, role model.Role) ([]model.User, error)
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes the profile. The credential account is kept.
	Delete(ctx context.Context, id string) error

	ListCouriers(ctx context.Context) ([]model.Courier, error)
	SaveCourier(ctx context.Context, courier *model.Courier) (*model.Courier, error)
}

// UploadService stores user supplied files.
type UploadService interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}
