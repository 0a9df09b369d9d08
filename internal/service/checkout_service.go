package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"farmart/internal/cache"
	"farmart/internal/events"
	"farmart/internal/model"
	"farmart/internal/notification"
	"farmart/internal/payment"
	"farmart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	msgOrderPlaced      = "Your order has been placed."
	msgPaymentCancelled = "Payment was cancelled. Your cart has been kept."
	msgPaymentFailed    = "Payment was not completed. Please try again."
	msgNotifyWarning    = "Your order was placed, but some confirmation emails could not be sent."

	checkoutTitle      = "Vical Farmart"
	releaseLockTimeout = 5 * time.Second
)

// PaymentLinker hands out the hosted checkout URL of an attempt once its
// payment flow has opened.
type PaymentLinker interface {
	Link(ctx context.Context, txRef string) (string, error)
}

// CheckoutOptions tunes the checkout workflow.
type CheckoutOptions struct {
	Gateway          string
	AdminEmail       string
	OrderHistoryURL  string
	PaymentFailedURL string
	LockTTL          time.Duration
	LinkTimeout      time.Duration
}

// CheckoutDeps are the collaborators of the checkout workflow.
type CheckoutDeps struct {
	Carts      cache.CartStore
	Attempts   cache.AttemptStore
	Locker     cache.Locker
	Orders     repository.OrderRepository
	Users      repository.UserRepository
	Payments   payment.Orchestrator
	Verifier   payment.Verifier
	Linker     PaymentLinker
	Currency   payment.CurrencyPolicy
	Dispatcher notification.Dispatcher
	Events     events.Publisher
}

type checkoutService struct {
	carts     cache.CartStore
	attempts  cache.AttemptStore
	locker    cache.Locker
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	payments  payment.Orchestrator
	verifier  payment.Verifier
	linker    PaymentLinker
	currency  payment.CurrencyPolicy
	notifier  *orderNotifier
	events    events.Publisher
	opts      CheckoutOptions

	wg     sync.WaitGroup
	now    func() time.Time
	logger zerolog.Logger
}

// NewCheckoutService creates the checkout workflow.
func NewCheckoutService(deps CheckoutDeps, opts CheckoutOptions, logger zerolog.Logger) CheckoutService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 45 * time.Minute
	}
	if opts.LinkTimeout <= 0 {
		opts.LinkTimeout = 10 * time.Second
	}
	if opts.Gateway == "" {
		opts.Gateway = "Flutterwave"
	}
	if deps.Verifier == nil {
		deps.Verifier = payment.RejectVerifier{}
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}

	return &checkoutService{
		carts:     deps.Carts,
		attempts:  deps.Attempts,
		locker:    deps.Locker,
		orderRepo: deps.Orders,
		userRepo:  deps.Users,
		payments:  deps.Payments,
		verifier:  deps.Verifier,
		linker:    deps.Linker,
		currency:  deps.Currency,
		notifier:  newOrderNotifier(deps.Dispatcher, deps.Users, opts.AdminEmail, logger),
		events:    deps.Events,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Submit validates the form and places the order.
func (s *checkoutService) Submit(ctx context.Context, customerID string, req *model.CheckoutRequest) (*model.CheckoutResult, error) {
	if err := req.Validate(); err != nil {
		s.logger.Debug().Err(err).Str("customer_id", customerID).Msg("checkout form rejected")
		return nil, err
	}

	customer, err := s.customer(ctx, customerID, req.Phone)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Load(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	cartCurrency, err := cart.Currency()
	if err != nil {
		return nil, err
	}
	currency, err := s.currency.Resolve(cartCurrency)
	if err != nil {
		s.logger.Warn().
			Str("customer_id", customerID).
			Str("currency", cartCurrency).
			Msg("cart currency not accepted by payment provider")
		return nil, err
	}

	token, ok, err := s.locker.Acquire(ctx, customerID, s.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !ok {
		return nil, model.ErrCheckoutInProgress
	}

	order := s.draft(customer, cart, currency, req)

	if req.PaymentMethod == model.PaymentChoiceCOD {
		defer s.release(customerID, token)

		result := s.newResult(order)
		if err := s.complete(ctx, order, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	return s.startOnline(ctx, customer, order, req.Platform, token)
}

// startOnline opens the payment flow in the background and returns once the
// hosted checkout URL is known.
func (s *checkoutService) startOnline(ctx context.Context, customer model.Customer, order *model.Order, platform, lockToken string) (*model.CheckoutResult, error) {
	txRef := payment.NewTxRef()
	order.TxRef = &txRef

	result := s.newResult(order)
	result.State = model.CheckoutAwaitingPayment
	s.save(ctx, result)
	snapshot := *result

	payReq := payment.Request{
		TxRef:    txRef,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Customer: payment.Customer{Email: customer.Email, Name: customer.Name, Phone: customer.Phone},
		Title:    checkoutTitle,
		Platform: platform,
	}

	flowCtx, cancelFlow := context.WithCancel(context.WithoutCancel(ctx))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancelFlow()
		defer s.release(customer.ID, lockToken)
		s.awaitPayment(flowCtx, order, payReq, result)
	}()

	s.logger.Info().
		Str("customer_id", customer.ID).
		Str("tx_ref", txRef).
		Str("amount", order.TotalAmount.StringFixed(2)).
		Str("currency", order.Currency).
		Msg("awaiting payment")

	linkCtx, cancelLink := context.WithTimeout(ctx, s.opts.LinkTimeout)
	defer cancelLink()

	checkoutURL, err := s.linker.Link(linkCtx, txRef)
	if err != nil {
		cancelFlow()
		s.logger.Error().Err(err).Str("tx_ref", txRef).Msg("payment session did not open")
		return nil, fmt.Errorf("failed to open payment session: %w", err)
	}

	snapshot.CheckoutURL = checkoutURL
	return &snapshot, nil
}

// awaitPayment runs after Submit has returned. result is owned by this goroutine.
func (s *checkoutService) awaitPayment(ctx context.Context, order *model.Order, req payment.Request, result *model.CheckoutResult) {
	outcome := s.payments.Pay(ctx, req)

	log := s.logger.With().Str("tx_ref", req.TxRef).Str("payment_status", string(outcome.Status)).Logger()

	switch {
	case outcome.Status == payment.StatusCancelled:
		log.Info().Msg("payment cancelled by customer")
		s.fail(ctx, result, msgPaymentCancelled)
		return
	case !outcome.Succeeded():
		log.Warn().Str("reason", outcome.Reason).Msg("payment failed")
		s.fail(ctx, result, msgPaymentFailed)
		return
	case outcome.TransactionID == "":
		log.Warn().Msg("successful payment without transaction id")
		s.fail(ctx, result, msgPaymentFailed)
		return
	}

	if err := s.verifier.Verify(ctx, req, outcome); err != nil {
		log.Error().Err(err).Str("transaction_id", outcome.TransactionID).Msg("payment verification failed")
		s.fail(ctx, result, msgPaymentFailed)
		return
	}

	order.Status = model.StatusPaid
	order.PaymentMethod = model.PaymentMethodOnline
	order.PaymentDetails = &model.PaymentDetails{
		TransactionID: outcome.TransactionID,
		Status:        string(outcome.Status),
		Gateway:       s.opts.Gateway,
	}

	_ = s.complete(ctx, order, result)
}

// complete persists the order, sends the emails and clears the cart.
func (s *checkoutService) complete(ctx context.Context, order *model.Order, result *model.CheckoutResult) error {
	result.State = model.CheckoutPersisting
	s.save(ctx, result)

	saved, created, err := s.persist(ctx, order)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to persist order")
		s.fail(ctx, result, model.ErrOrderNotSaved.Message)
		return model.ErrOrderNotSaved
	}

	result.OrderID = &saved.ID
	result.OrderStatus = saved.Status

	if created {
		result.State = model.CheckoutNotifying
		s.save(ctx, result)

		if err := s.notifier.placed(ctx, saved); err != nil {
			result.Warning = msgNotifyWarning
		}
		s.events.OrderCreated(ctx, saved)
	}

	if err := s.carts.Delete(ctx, saved.CustomerID); err != nil {
		s.logger.Error().Err(err).Str("customer_id", saved.CustomerID).Msg("failed to clear cart")
	}

	result.State = model.CheckoutDone
	result.Message = msgOrderPlaced
	result.RedirectTo = s.opts.OrderHistoryURL
	s.save(ctx, result)

	s.logger.Info().
		Str("order_id", saved.ID.String()).
		Str("customer_id", saved.CustomerID).
		Str("status", saved.Status.String()).
		Bool("created", created).
		Msg("checkout completed")
	return nil
}

// persist writes the order and its lines in one transaction. An order that
// already exists for the payment reference is returned with created=false.
func (s *checkoutService) persist(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, false, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, model.ErrDuplicateOrder) && order.TxRef != nil {
			existing, getErr := s.orderRepo.GetByTxRef(ctx, *order.TxRef)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				s.logger.Info().
					Str("tx_ref", *order.TxRef).
					Str("order_id", existing.ID.String()).
					Msg("payment already recorded, reusing order")
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	if err := s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Items); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit order: %w", err)
	}
	committed = true

	return order, true, nil
}

func (s *checkoutService) fail(ctx context.Context, result *model.CheckoutResult, message string) {
	result.State = model.CheckoutFailed
	result.Message = message
	result.RedirectTo = s.opts.PaymentFailedURL
	s.save(ctx, result)
}

// save records online attempts for polling. Pay-on-delivery attempts have no
// reference and are not tracked.
func (s *checkoutService) save(ctx context.Context, result *model.CheckoutResult) {
	result.UpdatedAt = s.now()
	if result.TxRef == "" {
		return
	}
	if err := s.attempts.Save(ctx, result); err != nil {
		s.logger.Error().Err(err).Str("tx_ref", result.TxRef).Msg("failed to save checkout attempt")
	}
}

func (s *checkoutService) release(customerID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseLockTimeout)
	defer cancel()
	if err := s.locker.Release(ctx, customerID, token); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("failed to release checkout lock")
	}
}

func (s *checkoutService) customer(ctx context.Context, customerID, phone string) (model.Customer, error) {
	user, err := s.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return model.Customer{}, fmt.Errorf("failed to load customer: %w", err)
	}
	if user == nil {
		return model.Customer{}, model.ErrUserNotFound
	}
	if !user.Active {
		return model.Customer{}, model.ErrAccountDisabled
	}
	if phone == "" {
		phone = user.Phone
	}
	return model.Customer{ID: user.ID, Name: user.DisplayName, Email: user.Email, Phone: phone}, nil
}

func (s *checkoutService) draft(customer model.Customer, cart *model.Cart, currency string, req *model.CheckoutRequest) *model.Order {
	now := s.now()
	items := model.OrderItemsFromCart(cart.Items)
	order := &model.Order{
		ID:              uuid.New(),
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		Items:           items,
		TotalAmount:     model.TotalOf(items),
		Currency:        currency,
		Status:          model.StatusPending,
		PaymentMethod:   req.PaymentMethod.Method(),
		ShippingAddress: req.Shipping(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.AttributeSeller()
	return order
}

func (s *checkoutService) newResult(order *model.Order) *model.CheckoutResult {
	result := &model.CheckoutResult{
		State:       model.CheckoutValidating,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}
	if order.TxRef != nil {
		result.TxRef = *order.TxRef
	}
	return result
}

// Status returns the latest state of the customer's attempt.
func (s *checkoutService) Status(ctx context.Context, customerID, txRef string) (*model.CheckoutResult, error) {
	attempt, err := s.attempts.Get(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if attempt.CustomerID != customerID {
		return nil, model.ErrCheckoutNotFound
	}
	return attempt, nil
}

// Shutdown waits for background attempts to finish or ctx to end.
func (s *checkoutService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("checkout attempts still running: %w", ctx.Err())
	}
}
