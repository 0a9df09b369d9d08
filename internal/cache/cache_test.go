package cache

import (
	"context"
	"testing"
	"time"

	"farmart/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts a miniredis server and returns a client for it.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisCartStore_SaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour, zerolog.Nop())
	ctx := context.Background()

	cart := model.NewCart("C1")
	require.NoError(t, cart.Add(model.CartItem{
		ProductID: "A", Name: "Tomatoes", Price: decimal.RequireFromString("3.99"),
		Currency: "GHS", Quantity: 2, SellerID: "S1", SellerName: "Green Acres",
	}))
	require.NoError(t, store.Save(ctx, cart))

	assert.True(t, mr.Exists("cart:C1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:C1"))

	loaded, err := store.Load(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("7.98").Equal(loaded.Subtotal()))
}

func TestRedisCartStore_LoadMissingIsEmpty(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour, zerolog.Nop())

	cart, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", cart.CustomerID)
	assert.Empty(t, cart.Items)
}

func TestRedisCartStore_LoadCorruptIsEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour, zerolog.Nop())
	mr.Set("cart:C1", "{not json")

	cart, err := store.Load(context.Background(), "C1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestRedisCartStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisCartStore(client, time.Hour, zerolog.Nop())
	mr.Set("cart:C1", "{}")

	require.NoError(t, store.Delete(context.Background(), "C1"))
	assert.False(t, mr.Exists("cart:C1"))
}

func TestRedisAttemptStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisAttemptStore(client, 24*time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrCheckoutNotFound)

	orderID := uuid.New()
	attempt := &model.CheckoutResult{
		State:       model.CheckoutDone,
		CustomerID:  "C1",
		TxRef:       "ref-1",
		OrderID:     &orderID,
		OrderStatus: model.StatusPaid,
		TotalAmount: decimal.RequireFromString("7.98"),
		Currency:    "GHS",
	}
	require.NoError(t, store.Save(ctx, attempt))
	assert.Equal(t, 24*time.Hour, mr.TTL("checkout:attempt:ref-1"))

	got, err := store.Get(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutDone, got.State)
	assert.Equal(t, orderID, *got.OrderID)
	assert.True(t, attempt.TotalAmount.Equal(got.TotalAmount))
}

func TestRedisLocker(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "C1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = locker.Acquire(ctx, "C1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A stale token must not release someone else's lock.
	require.NoError(t, locker.Release(ctx, "C1", "stale"))
	assert.True(t, mr.Exists("checkout:lock:C1"))

	require.NoError(t, locker.Release(ctx, "C1", token))
	assert.False(t, mr.Exists("checkout:lock:C1"))

	_, ok, err = locker.Acquire(ctx, "C1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewRedisLocker(client)
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "C1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = locker.Acquire(ctx, "C1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
