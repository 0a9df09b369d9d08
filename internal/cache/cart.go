package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmart/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CartStore persists the whole cart snapshot per customer.
type CartStore interface {
	// Load returns the customer's cart. A missing or unreadable snapshot
	// yields an empty cart.
	Load(ctx context.Context, customerID string) (*model.Cart, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, cart *model.Cart) error

	// Delete removes the snapshot.
	Delete(ctx context.Context, customerID string) error
}

// RedisCartStore implements CartStore on Redis.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCartStore creates a cart store. Idle carts expire after ttl.
func NewRedisCartStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCartStore {
	return &RedisCartStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("store", "cart").Logger(),
	}
}

func cartKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}

func (s *RedisCartStore) Load(ctx context.Context, customerID string) (*model.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewCart(customerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("discarding unreadable cart snapshot")
		return model.NewCart(customerID), nil
	}
	cart.CustomerID = customerID
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return &cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, cart *model.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(cart.CustomerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
