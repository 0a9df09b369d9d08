package repository

import (
	"context"
	"errors"

	"farmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Lookups that find nothing return a nil record and a nil error.

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves active products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ListBySeller retrieves every listing owned by a seller, active or not.
	ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error)

	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a listing. It reports false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	// A second order for the same tx_ref yields model.ErrDuplicateOrder.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's lines within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByTxRef retrieves the order placed for a payment reference.
	GetByTxRef(ctx context.Context, txRef string) (*model.Order, error)

	// List retrieves orders with their items, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus moves an order from change.From to change.To and records the
	// change. It fails with model.ErrStatusConflict when the stored status is no
	// longer change.From.
	UpdateStatus(ctx context.Context, change model.StatusChange) error

	// History lists an order's status changes, oldest first.
	History(ctx context.Context, orderID uuid.UUID) ([]model.StatusChange, error)
}

// UserRepository defines the interface for profile data access operations.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// ListByRole lists profiles with the given role; an empty role lists everyone.
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)

	Update(ctx context.Context, u *model.User) error
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AccountRepository defines the interface for credential data access operations.
type AccountRepository interface {
	// Create stores a new account. A taken email yields model.ErrEmailExists.
	Create(ctx context.Context, a *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Delete(ctx context.Context, uid string) error
}

// CourierRepository defines the interface for courier record data access operations.
type CourierRepository interface {
	// Upsert creates or replaces the courier record of a user.
	Upsert(ctx context.Context, c *model.Courier) error
	GetByUserID(ctx context.Context, userID string) (*model.Courier, error)
	List(ctx context.Context) ([]model.Courier, error)
}

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint failure,
// optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
