package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"farmart/internal/auth"
	"farmart/internal/cache"
	"farmart/internal/database"
	"farmart/internal/events"
	"farmart/internal/handler"
	"farmart/internal/model"
	"farmart/internal/notification"
	"farmart/internal/payment"
	"farmart/internal/repository"
	"farmart/internal/router"
	"farmart/internal/service"
	"farmart/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a migrated PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// TestServer is the full HTTP stack over a test database and an in-memory Redis.
type TestServer struct {
	Handler  http.Handler
	Tokens   auth.TokenManager
	Users    repository.UserRepository
	Accounts repository.AccountRepository
	Checkout service.CheckoutService
}

// SetupTestServer wires repositories, services and the router the way the
// API binary does, with emails logged and payments never verified remotely.
func SetupTestServer(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	userRepo := repository.NewUserRepository(testDB.Pool, logger)
	accountRepo := repository.NewAccountRepository(testDB.Pool, logger)
	courierRepo := repository.NewCourierRepository(testDB.Pool, logger)

	tokens := auth.NewTokenManager("integration-secret", "farmart", time.Hour)

	composer, err := notification.NewTemplateComposer()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}
	dispatcher := notification.NewDispatcher(composer, notification.NewLogTransport(logger), logger)

	page := payment.HostedPage{
		BaseURL:     "https://checkout.flutterwave.test/v3/hosted/pay",
		PublicKey:   "FLWPUBK_TEST",
		RedirectURL: "http://localhost/api/payments/redirect",
	}
	hub := payment.NewHub(page, time.Minute, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	carts := cache.NewRedisCartStore(rdb, time.Hour, logger)
	checkout := service.NewCheckoutService(service.CheckoutDeps{
		Carts:    carts,
		Attempts: cache.NewRedisAttemptStore(rdb, time.Hour),
		Locker:   cache.NewRedisLocker(rdb),
		Orders:   orderRepo,
		Users:    userRepo,
		Payments: &payment.Router{
			Web:    payment.NewModalFlow(hub.Modal(), logger),
			Native: payment.NewBrowserFlow(hub.Browser(), page, logger),
		},
		Verifier:   payment.NoopVerifier{},
		Linker:     hub,
		Currency:   payment.CurrencyPolicy{Default: "GHS", Logger: logger},
		Dispatcher: dispatcher,
		Events:     events.Noop{},
	}, service.CheckoutOptions{
		AdminEmail:       "admin@farmart.test",
		OrderHistoryURL:  "/account/orders",
		PaymentFailedURL: "/checkout",
		LockTTL:          time.Minute,
		LinkTimeout:      5 * time.Second,
	}, logger)
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = checkout.Shutdown(shutdownCtx)
	})

	uploadDir := t.TempDir()
	handlers := router.Handlers{
		Products: handler.NewProductHandler(service.NewProductService(productRepo, userRepo, logger), logger),
		Cart:     handler.NewCartHandler(service.NewCartService(carts, productRepo, logger), logger),
		Checkout: handler.NewCheckoutHandler(checkout, logger),
		Payments: handler.NewPaymentHandler(hub, page.RedirectURL, logger),
		Orders:   handler.NewOrderHandler(service.NewOrderService(orderRepo, userRepo, dispatcher, events.Noop{}, logger), logger),
		Users:    handler.NewUserHandler(service.NewUserService(userRepo, accountRepo, courierRepo, tokens, dispatcher, logger), logger),
		Uploads: handler.NewUploadHandler(
			service.NewUploadService(storage.NewLocalStore(uploadDir, "http://localhost/files", logger), logger), 1, logger),
	}

	return &TestServer{
		Handler:  router.New(handlers, tokens, userRepo, router.Options{UploadDir: uploadDir, UploadBaseURL: "http://localhost/files"}, logger),
		Tokens:   tokens,
		Users:    userRepo,
		Accounts: accountRepo,
		Checkout: checkout,
	}
}

// SeedStaff creates a staff account directly, since self sign-up only
// offers the customer and seller roles.
func SeedStaff(t *testing.T, s *TestServer, id string, role model.Role, password string) *model.User {
	t.Helper()
	ctx := context.Background()

	email := fmt.Sprintf("%s@farmart.test", id)
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := s.Accounts.Create(ctx, &model.Account{UID: id, Email: email, PasswordHash: hash, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("failed to seed account %s: %v", id, err)
	}

	user := &model.User{ID: id, DisplayName: string(role) + " " + id, Email: email, Role: role, Active: true}
	if err := s.Users.Create(ctx, user); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
	return user
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_status_history", "order_items", "orders", "products", "couriers", "users", "accounts"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
