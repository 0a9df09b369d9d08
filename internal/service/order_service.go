package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"farmart/internal/auth"
	"farmart/internal/events"
	"farmart/internal/model"
	"farmart/internal/notification"
	"farmart/internal/report"
	"farmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// courierStatuses are the statuses a courier works on.
var courierStatuses = []model.Status{model.StatusProcessing, model.StatusShipped}

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	notifier  *orderNotifier
	events    events.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	dispatcher notification.Dispatcher,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &orderService{
		orderRepo: orderRepo,
		notifier:  newOrderNotifier(dispatcher, userRepo, "", logger),
		events:    publisher,
		now:       time.Now,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// List returns the orders visible to the actor. Customers see their own
// orders, sellers the orders holding their products, couriers the delivery
// workload and staff everything.
func (s *orderService) List(ctx context.Context, actor *auth.Principal, filter model.OrderFilter) ([]model.Order, error) {
	switch actor.Role {
	case model.RoleCustomer:
		filter.CustomerID = actor.UserID
	case model.RoleSeller:
		filter.SellerID = actor.UserID
	case model.RoleCourier:
		filter.Statuses = courierStatuses
	case model.RoleAdmin, model.RoleSupervisor:
	default:
		return nil, model.ErrForbidden
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("actor_id", actor.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves one order the actor may see.
func (s *orderService) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	if !canSee(actor, order) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actor.UserID).
			Str("actor_role", string(actor.Role)).
			Msg("order access denied")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) History(ctx context.Context, actor *auth.Principal, id uuid.UUID) ([]model.StatusChange, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.orderRepo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return history, nil
}

// UpdateStatus applies a status change allowed for the actor's role. The
// write only succeeds if the order still has the status the actor saw.
func (s *orderService) UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, next model.Status) (*model.Order, error) {
	if !next.Valid() {
		return nil, model.ErrInvalidStatus
	}

	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !order.CanMove(next, actor.Role, actor.UserID) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", order.Status.String()).
			Str("to", next.String()).
			Str("actor_role", string(actor.Role)).
			Msg("status transition rejected")
		return nil, model.ErrInvalidStatusTransition
	}

	change := model.StatusChange{
		OrderID:   order.ID,
		From:      order.Status,
		To:        next,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		ChangedAt: s.now(),
	}
	if err := s.orderRepo.UpdateStatus(ctx, change); err != nil {
		return nil, err
	}

	order.Status = next
	order.UpdatedAt = change.ChangedAt

	// Status emails are informational; a failed send does not undo the change.
	_ = s.notifier.statusChanged(ctx, order)
	s.events.StatusChanged(ctx, order, change)

	return order, nil
}

// CourierWorkload lists orders awaiting or out for delivery.
func (s *orderService) CourierWorkload(ctx context.Context, actor *auth.Principal) ([]model.Order, error) {
	if !actor.HasRole(model.RoleCourier, model.RoleAdmin, model.RoleSupervisor) {
		return nil, model.ErrForbidden
	}
	orders, err := s.orderRepo.List(ctx, model.OrderFilter{Statuses: courierStatuses, Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("failed to list courier orders: %w", err)
	}
	return orders, nil
}

// Export writes the filtered orders as a spreadsheet.
func (s *orderService) Export(ctx context.Context, actor *auth.Principal, filter model.OrderFilter, w io.Writer) error {
	if !actor.Role.IsStaff() {
		return model.ErrForbidden
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list orders for export: %w", err)
	}

	if err := report.WriteOrders(w, orders); err != nil {
		s.logger.Error().Err(err).Msg("failed to write order report")
		return fmt.Errorf("failed to write order report: %w", err)
	}

	s.logger.Info().Int("count", len(orders)).Str("actor_id", actor.UserID).Msg("orders exported")
	return nil
}

func canSee(actor *auth.Principal, order *model.Order) bool {
	switch actor.Role {
	case model.RoleAdmin, model.RoleSupervisor:
		return true
	case model.RoleCustomer:
		return order.CustomerID == actor.UserID
	case model.RoleSeller:
		return order.HasSeller(actor.UserID)
	case model.RoleCourier:
		for _, st := range courierStatuses {
			if order.Status == st {
				return true
			}
		}
		// Couriers keep sight of orders they delivered.
		return order.Status == model.StatusDelivered
	}
	return false
}
