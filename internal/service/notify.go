package service

import (
	"context"
	"errors"
	"fmt"

	"farmart/internal/model"
	"farmart/internal/notification"
	"farmart/internal/repository"

	"github.com/rs/zerolog"
)

// orderNotifier sends the emails that follow order placement and status
// changes. Recipients are resolved from profiles at send time.
type orderNotifier struct {
	dispatcher notification.Dispatcher
	userRepo   repository.UserRepository
	adminEmail string
	logger     zerolog.Logger
}

func newOrderNotifier(dispatcher notification.Dispatcher, userRepo repository.UserRepository, adminEmail string, logger zerolog.Logger) *orderNotifier {
	return &orderNotifier{
		dispatcher: dispatcher,
		userRepo:   userRepo,
		adminEmail: adminEmail,
		logger:     logger.With().Str("component", "order_notifier").Logger(),
	}
}

// placed sends, in order, the customer confirmation or invoice, the admin
// alert and one alert per seller carrying only that seller's lines. Every
// send is attempted; the failures are joined.
func (n *orderNotifier) placed(ctx context.Context, order *model.Order) error {
	var errs []error

	if order.Status == model.StatusPaid {
		errs = append(errs, n.dispatcher.SendConfirmation(ctx, order))
	} else {
		errs = append(errs, n.dispatcher.SendInvoice(ctx, order))
	}

	admin, err := n.admin(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, n.dispatcher.SendOrderAlert(ctx, order, admin, order.Items))
	}

	for _, group := range model.GroupBySeller(order.Items) {
		seller, err := n.seller(ctx, group.SellerID, group.SellerName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, n.dispatcher.SendOrderAlert(ctx, order, seller, group.Items))
	}

	return n.report(order, "order_placed", errs)
}

// statusChanged tells the customer and every seller on the order.
func (n *orderNotifier) statusChanged(ctx context.Context, order *model.Order) error {
	errs := []error{
		n.dispatcher.SendStatusUpdate(ctx, order, notification.Recipient{
			ID:    order.CustomerID,
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Role:  model.RoleCustomer,
		}),
	}

	for _, group := range model.GroupBySeller(order.Items) {
		seller, err := n.seller(ctx, group.SellerID, group.SellerName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, n.dispatcher.SendStatusUpdate(ctx, order, seller))
	}

	return n.report(order, "status_changed", errs)
}

func (n *orderNotifier) report(order *model.Order, event string, errs []error) error {
	err := errors.Join(errs...)
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("event", event).
			Msg("some order emails were not sent")
	}
	return err
}

// admin returns the configured admin mailbox, or the first active admin.
func (n *orderNotifier) admin(ctx context.Context) (notification.Recipient, error) {
	if n.adminEmail != "" {
		return notification.Recipient{Name: "Admin", Email: n.adminEmail, Role: model.RoleAdmin}, nil
	}

	admins, err := n.userRepo.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		return notification.Recipient{}, fmt.Errorf("failed to look up admin: %w", err)
	}
	for _, a := range admins {
		if a.Active {
			return notification.Recipient{ID: a.ID, Name: a.DisplayName, Email: a.Email, Role: model.RoleAdmin}, nil
		}
	}
	return notification.Recipient{}, errors.New("no active admin to notify")
}

func (n *orderNotifier) seller(ctx context.Context, id, name string) (notification.Recipient, error) {
	user, err := n.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Recipient{}, fmt.Errorf("failed to look up seller %s: %w", id, err)
	}
	if user == nil {
		return notification.Recipient{}, fmt.Errorf("seller %s has no profile", id)
	}
	if name == "" {
		name = user.DisplayName
	}
	return notification.Recipient{ID: user.ID, Name: name, Email: user.Email, Role: model.RoleSeller}, nil
}
