package service

import (
	"context"
	"fmt"
	"time"

	"farmart/internal/cache"
	"farmart/internal/model"
	"farmart/internal/repository"

	"github.com/rs/zerolog"
)

type cartService struct {
	carts       cache.CartStore
	productRepo repository.ProductRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts cache.CartStore, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		carts:       carts,
		productRepo: productRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) Get(ctx context.Context, customerID string) (*model.Cart, error) {
	cart, err := s.carts.Load(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, model.ErrProductNotFound
	}

	return s.mutate(ctx, customerID, func(cart *model.Cart) error {
		err := cart.Add(model.CartItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Image:      product.Image,
			Price:      product.Price,
			Currency:   product.Currency,
			Quantity:   quantity,
			SellerID:   product.SellerID,
			SellerName: product.SellerName,
		})
		if err != nil {
			return err
		}
		_, err = cart.Currency()
		return err
	})
}

func (s *cartService) UpdateItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error) {
	return s.mutate(ctx, customerID, func(cart *model.Cart) error {
		return cart.UpdateQuantity(productID, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, productID string) (*model.Cart, error) {
	return s.mutate(ctx, customerID, func(cart *model.Cart) error {
		cart.Remove(productID)
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, customerID string) error {
	if err := s.carts.Delete(ctx, customerID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.logger.Debug().Str("customer_id", customerID).Msg("cart cleared")
	return nil
}

// mutate loads the cart, applies fn and persists the whole snapshot.
// Nothing is saved when fn fails.
func (s *cartService) mutate(ctx context.Context, customerID string, fn func(*model.Cart) error) (*model.Cart, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}

	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug().
		Str("customer_id", customerID).
		Int("count", cart.Count()).
		Msg("cart updated")
	return cart, nil
}
