package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, customer_id, customer_name, customer_email, customer_phone,
	total_amount, currency, status, payment_method,
	street, city, zip, id_card_number,
	seller_id, seller_name,
	transaction_id, payment_status, payment_gateway,
	tx_ref, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	var txnID, payStatus, gateway *string
	if pd := order.PaymentDetails; pd != nil {
		txnID, payStatus, gateway = &pd.TransactionID, &pd.Status, &pd.Gateway
	}

	_, err := tx.Exec(ctx, query,
		order.ID, order.CustomerID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.TotalAmount, order.Currency, order.Status, order.PaymentMethod,
		order.ShippingAddress.Street, order.ShippingAddress.City, order.ShippingAddress.Zip, order.ShippingAddress.IDCardNumber,
		order.SellerID, order.SellerName,
		txnID, payStatus, gateway,
		order.TxRef, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_tx_ref_key") {
			r.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("tx_ref", deref(order.TxRef)).
				Msg("order already exists for payment reference")
			return model.ErrDuplicateOrder
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's lines within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, position, product_id, name, quantity, price, image, seller_id, seller_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, orderID, i, item.ProductID, item.Name, item.Quantity, item.Price, item.Image, item.SellerID, item.SellerName)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByTxRef retrieves the order placed for a payment reference.
func (r *orderRepository) GetByTxRef(ctx context.Context, txRef string) (*model.Order, error) {
	return r.getOne(ctx, "tx_ref = $1", txRef)
}

func (r *orderRepository) getOne(ctx context.Context, where string, arg any) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where

	order, err := scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Interface("key", arg).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.attachItems(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// List retrieves orders with their items, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	filter.Normalise()

	var (
		conds []string
		args  []any
	)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.SellerID != "" {
		args = append(args, filter.SellerID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.seller_id = $%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	ptrs := make([]*model.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order between statuses and appends a history row.
func (r *orderRepository) UpdateStatus(ctx context.Context, change model.StatusChange) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		change.To, change.ChangedAt, change.OrderID, change.From)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", change.OrderID.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("order_id", change.OrderID.String()).
			Str("expected_status", change.From.String()).
			Msg("order status changed concurrently")
		err = model.ErrStatusConflict
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (order_id, from_status, to_status, actor_id, actor_role, changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		change.OrderID, change.From, change.To, change.ActorID, change.ActorRole, change.ChangedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", change.OrderID.String()).Msg("failed to record status change")
		return fmt.Errorf("failed to record status change: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", change.OrderID.String()).Msg("failed to commit status change")
		return fmt.Errorf("failed to commit status change: %w", err)
	}

	r.logger.Info().
		Str("order_id", change.OrderID.String()).
		Str("from", change.From.String()).
		Str("to", change.To.String()).
		Str("actor_role", string(change.ActorRole)).
		Msg("order status updated")
	return nil
}

// History lists an order's status changes, oldest first.
func (r *orderRepository) History(ctx context.Context, orderID uuid.UUID) ([]model.StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, from_status, to_status, actor_id, actor_role, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	history := []model.StatusChange{}
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.OrderID, &c.From, &c.To, &c.ActorID, &c.ActorRole, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}
	return history, nil
}

// attachItems loads the lines of every order in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []model.OrderItem{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, name, quantity, price, image, seller_id, seller_name
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    model.OrderItem
		)
		err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price,
			&item.Image, &item.SellerID, &item.SellerName)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                         model.Order
		txnID, payStatus, gateway *string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.TotalAmount, &o.Currency, &o.Status, &o.PaymentMethod,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.Zip, &o.ShippingAddress.IDCardNumber,
		&o.SellerID, &o.SellerName,
		&txnID, &payStatus, &gateway,
		&o.TxRef, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if txnID != nil {
		o.PaymentDetails = &model.PaymentDetails{
			TransactionID: *txnID,
			Status:        deref(payStatus),
			Gateway:       deref(gateway),
		}
	}
	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
