package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farmart/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AttemptStore tracks online checkout attempts by transaction reference.
type AttemptStore interface {
	Save(ctx context.Context, attempt *model.CheckoutResult) error

	// Get returns model.ErrCheckoutNotFound for unknown references.
	Get(ctx context.Context, txRef string) (*model.CheckoutResult, error)
}

// RedisAttemptStore implements AttemptStore on Redis.
type RedisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAttemptStore creates an attempt store keeping records for ttl.
func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, ttl: ttl}
}

func attemptKey(txRef string) string {
	return fmt.Sprintf("checkout:attempt:%s", txRef)
}

func (s *RedisAttemptStore) Save(ctx context.Context, attempt *model.CheckoutResult) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal checkout attempt failed: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.TxRef), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) Get(ctx context.Context, txRef string) (*model.CheckoutResult, error) {
	data, err := s.client.Get(ctx, attemptKey(txRef)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var attempt model.CheckoutResult
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal checkout attempt failed: %w", err)
	}
	return &attempt, nil
}

// Locker guards one in-flight checkout per customer.
type Locker interface {
	// Acquire takes the lock, returning ok=false when someone else holds it.
	Acquire(ctx context.Context, customerID string, ttl time.Duration) (token string, ok bool, err error)

	// Release frees the lock if token still owns it.
	Release(ctx context.Context, customerID, token string) error
}

// RedisLocker implements Locker with SET NX and a compare-and-delete script.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Redis locker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(customerID string) string {
	return fmt.Sprintf("checkout:lock:%s", customerID)
}

func (l *RedisLocker) Acquire(ctx context.Context, customerID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(customerID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLocker) Release(ctx context.Context, customerID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(customerID)}, token).Err(); err != nil {
		return fmt.Errorf("redis release lock failed: %w", err)
	}
	return nil
}
