package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmart/internal/auth"
	"farmart/internal/model"
	"farmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, userRepo repository.UserRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		userRepo:    userRepo,
		now:         time.Now,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves active listings with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single listing by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) ListMine(ctx context.Context, seller *auth.Principal) ([]model.Product, error) {
	products, err := s.productRepo.ListBySeller(ctx, seller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}
	return products, nil
}

func (s *productService) Create(ctx context.Context, seller *auth.Principal, req *model.ProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sellerName, err := s.sellerName(ctx, seller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product := &model.Product{
		ID:          uuid.NewString(),
		SellerID:    seller.UserID,
		SellerName:  sellerName,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Currency:    strings.ToUpper(req.Currency),
		Category:    req.Category,
		Image:       req.Image,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("seller_id", seller.UserID).
		Msg("product listed")
	return product, nil
}

func (s *productService) Update(ctx context.Context, seller *auth.Principal, id string, req *model.ProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := s.owned(ctx, seller, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Price = req.Price.Round(2)
	product.Currency = strings.ToUpper(req.Currency)
	product.Category = req.Category
	product.Image = req.Image
	product.UpdatedAt = s.now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, seller *auth.Principal, id string) error {
	if _, err := s.owned(ctx, seller, id); err != nil {
		return err
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id).Str("actor_id", seller.UserID).Msg("product removed")
	return nil
}

// owned loads a listing the caller may edit. Staff may edit any listing.
func (s *productService) owned(ctx context.Context, actor *auth.Principal, id string) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != actor.UserID && !actor.Role.IsStaff() {
		s.logger.Warn().
			Str("product_id", id).
			Str("actor_id", actor.UserID).
			Msg("attempt to edit another seller's product")
		return nil, model.ErrForbidden
	}
	return product, nil
}

func (s *productService) sellerName(ctx context.Context, seller *auth.Principal) (string, error) {
	user, err := s.userRepo.GetByID(ctx, seller.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load seller profile: %w", err)
	}
	if user == nil {
		return "", model.ErrUserNotFound
	}
	if user.BusinessName != "" {
		return user.BusinessName, nil
	}
	return user.DisplayName, nil
}
