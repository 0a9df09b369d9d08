package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmart/internal/auth"
	"farmart/internal/cache"
	"farmart/internal/config"
	"farmart/internal/database"
	"farmart/internal/events"
	"farmart/internal/handler"
	"farmart/internal/notification"
	"farmart/internal/payment"
	"farmart/internal/repository"
	"farmart/internal/router"
	"farmart/internal/service"
	"farmart/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting farmart API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	accountRepo := repository.NewAccountRepository(pool, logger)
	courierRepo := repository.NewCourierRepository(pool, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	dispatcher, err := newDispatcher(cfg.Email, logger)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Hosted payment sessions
	page := payment.HostedPage{
		BaseURL:     cfg.Payment.CheckoutURL,
		PublicKey:   cfg.Payment.PublicKey,
		RedirectURL: cfg.Payment.RedirectURL,
	}
	hub := payment.NewHub(page, cfg.Payment.SessionTTL, logger)
	go hub.Run(ctx)

	verifier := newVerifier(cfg.Payment, logger)

	// Services
	productService := service.NewProductService(productRepo, userRepo, logger)
	cartService := service.NewCartService(cache.NewRedisCartStore(rdb, cfg.Redis.CartTTL, logger), productRepo, logger)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Carts:    cache.NewRedisCartStore(rdb, cfg.Redis.CartTTL, logger),
		Attempts: cache.NewRedisAttemptStore(rdb, cfg.Redis.AttemptTTL),
		Locker:   cache.NewRedisLocker(rdb),
		Orders:   orderRepo,
		Users:    userRepo,
		Payments: &payment.Router{
			Web:    payment.NewModalFlow(hub.Modal(), logger),
			Native: payment.NewBrowserFlow(hub.Browser(), page, logger),
		},
		Verifier: verifier,
		Linker:   hub,
		Currency: payment.CurrencyPolicy{
			Default:  cfg.Payment.DefaultCurrency,
			Fallback: cfg.Payment.CurrencyFallback,
			Logger:   logger,
		},
		Dispatcher: dispatcher,
		Events:     publisher,
	}, service.CheckoutOptions{
		Gateway:          cfg.Payment.Gateway,
		AdminEmail:       cfg.Email.AdminEmail,
		OrderHistoryURL:  cfg.Checkout.OrderHistoryURL,
		PaymentFailedURL: cfg.Checkout.PaymentFailedURL,
		LockTTL:          cfg.Checkout.LockTTL,
	}, logger)
	orderService := service.NewOrderService(orderRepo, userRepo, dispatcher, publisher, logger)
	userService := service.NewUserService(userRepo, accountRepo, courierRepo, tokens, dispatcher, logger)
	uploadService := service.NewUploadService(newUploadStore(ctx, cfg, logger), logger)

	// HTTP
	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Payments: handler.NewPaymentHandler(hub, cfg.Payment.RedirectURL, logger),
		Orders:   handler.NewOrderHandler(orderService, logger),
		Users:    handler.NewUserHandler(userService, logger),
		Uploads:  handler.NewUploadHandler(uploadService, cfg.Storage.MaxUploadMB, logger),
	}, tokens, userRepo, router.Options{
		UploadDir:     cfg.Storage.LocalDir,
		UploadBaseURL: cfg.Storage.LocalBaseURL,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		// In-flight online checkouts still need their order written.
		if err := checkoutService.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("checkout attempts still running at shutdown")
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newVerifier picks gateway verification. Config validation guarantees a
// secret key unless verification was explicitly disabled.
func newVerifier(cfg config.PaymentConfig, logger zerolog.Logger) payment.Verifier {
	switch {
	case cfg.SecretKey != "":
		return payment.NewFlutterwaveClient(cfg.APIBaseURL, cfg.SecretKey, logger)
	case cfg.VerifyDisabled:
		logger.Warn().Msg("payment verification disabled, gateway outcomes are trusted as reported")
		return payment.NoopVerifier{}
	default:
		return payment.RejectVerifier{}
	}
}

func newDispatcher(cfg config.EmailConfig, logger zerolog.Logger) (notification.Dispatcher, error) {
	composer, err := notification.NewTemplateComposer()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	from := notification.Sender{Name: cfg.SenderName, Address: cfg.Sender}
	var transport notification.Transport
	switch cfg.Provider {
	case "sendgrid":
		transport = notification.NewSendGridTransport(cfg.SendGridKey, "", from)
	case "postmark":
		transport = notification.NewPostmarkTransport(cfg.PostmarkToken, "", from)
	default:
		logger.Info().Str("provider", cfg.Provider).Msg("emails will be logged, not sent")
		transport = notification.NewLogTransport(logger)
	}

	return notification.NewDispatcher(composer, transport, logger), nil
}

// newUploadStore prefers S3 and falls back to local disk.
func newUploadStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) storage.Store {
	local := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL, logger)
	if !cfg.S3.Enabled {
		logger.Info().Msg("using local file system for uploads (S3 disabled)")
		return local
	}

	s3Store, err := storage.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.PublicBase, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return local
	}
	return storage.NewFallbackStore(s3Store, local, logger)
}
