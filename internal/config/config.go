package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Email    EmailConfig
	S3       S3Config
	Storage  StorageConfig
	Kafka    KafkaConfig
	Checkout CheckoutConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	MaxConnIdleTime time.Duration
	HealthCheck     time.Duration
	ApplicationName string
	MigrateOnStart  bool
}

// RedisConfig holds the Redis connection used for carts and checkout attempts.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	CartTTL    time.Duration
	AttemptTTL time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// PaymentConfig holds hosted checkout configuration.
type PaymentConfig struct {
	Gateway          string
	PublicKey        string
	SecretKey        string
	VerifyDisabled   bool // accept gateway outcomes without server-side verification
	CheckoutURL      string // hosted checkout page
	APIBaseURL       string // transaction verification API
	RedirectURL      string
	DefaultCurrency  string
	CurrencyFallback bool
	SessionTTL       time.Duration
}

// EmailConfig holds email transport configuration.
type EmailConfig struct {
	Provider      string // "log", "sendgrid" or "postmark"
	SendGridKey   string
	PostmarkToken string
	Sender        string
	SenderName    string
	AdminEmail    string
}

// S3Config holds AWS S3 configuration for uploaded files.
type S3Config struct {
	Enabled    bool
	Bucket     string
	Region     string
	Prefix     string // Path prefix within bucket (e.g., "uploads/")
	PublicBase string // Optional public URL base, defaults to the bucket's virtual-hosted URL
}

// StorageConfig holds the local upload fallback.
type StorageConfig struct {
	LocalDir     string
	LocalBaseURL string
	MaxUploadMB  int
}

// KafkaConfig holds order event publishing configuration.
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	OrderTopic string
}

// CheckoutConfig holds navigation targets used after checkout.
type CheckoutConfig struct {
	OrderHistoryURL  string
	PaymentFailedURL string
	LockTTL          time.Duration
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "farmart"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			HealthCheck:     getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ApplicationName: getEnv("DB_APPLICATION_NAME", "farmart"),
			MigrateOnStart:  getEnvAsBool("DB_MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			CartTTL:    getEnvAsDuration("REDIS_CART_TTL", 30*24*time.Hour),
			AttemptTTL: getEnvAsDuration("REDIS_ATTEMPT_TTL", 24*time.Hour),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			Issuer:    getEnv("AUTH_ISSUER", "vical-farmart"),
		},
		Payment: PaymentConfig{
			Gateway:          getEnv("PAYMENT_GATEWAY", "Flutterwave"),
			PublicKey:        getEnv("PAYMENT_PUBLIC_KEY", ""),
			SecretKey:        getEnv("PAYMENT_SECRET_KEY", ""),
			VerifyDisabled:   getEnvAsBool("PAYMENT_VERIFY_DISABLED", false),
			CheckoutURL:      getEnv("PAYMENT_CHECKOUT_URL", "https://checkout.flutterwave.com/v3/hosted/pay"),
			APIBaseURL:       getEnv("PAYMENT_API_BASE_URL", "https://api.flutterwave.com"),
			RedirectURL:      getEnv("PAYMENT_REDIRECT_URL", "http://localhost:8080/api/payments/redirect"),
			DefaultCurrency:  getEnv("PAYMENT_DEFAULT_CURRENCY", "GHS"),
			CurrencyFallback: getEnvAsBool("PAYMENT_CURRENCY_FALLBACK", false),
			SessionTTL:       getEnvAsDuration("PAYMENT_SESSION_TTL", 30*time.Minute),
		},
		Email: EmailConfig{
			Provider:      getEnv("EMAIL_PROVIDER", "log"),
			SendGridKey:   getEnv("SENDGRID_API_KEY", ""),
			PostmarkToken: getEnv("POSTMARK_API_TOKEN", ""),
			Sender:        getEnv("EMAIL_SENDER", "no-reply@vicalfarmart.com"),
			SenderName:    getEnv("EMAIL_SENDER_NAME", "Vical Farmart"),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		},
		S3: S3Config{
			Enabled:    getEnvAsBool("S3_ENABLED", false),
			Bucket:     getEnv("S3_BUCKET", ""),
			Region:     getEnv("S3_REGION", "us-east-1"),
			Prefix:     getEnv("S3_PREFIX", "uploads/"),
			PublicBase: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:     getEnv("UPLOAD_DIR", "data/uploads"),
			LocalBaseURL: getEnv("UPLOAD_BASE_URL", "http://localhost:8080/files"),
			MaxUploadMB:  getEnvAsInt("UPLOAD_MAX_MB", 10),
		},
		Kafka: KafkaConfig{
			Enabled:    getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:    getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrderTopic: getEnv("KAFKA_ORDER_TOPIC", "farmart.orders"),
		},
		Checkout: CheckoutConfig{
			OrderHistoryURL:  getEnv("CHECKOUT_ORDER_HISTORY_URL", "/account/orders"),
			PaymentFailedURL: getEnv("CHECKOUT_PAYMENT_FAILED_URL", "/checkout"),
			LockTTL:          getEnvAsDuration("CHECKOUT_LOCK_TTL", 45*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Database.MaxConnIdleTime < 0 || c.Database.HealthCheck < 0 {
		return fmt.Errorf("database idle time and health check period cannot be negative")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Payment.PublicKey == "" {
		return fmt.Errorf("payment public key is required")
	}

	if c.Payment.SecretKey == "" && !c.Payment.VerifyDisabled {
		return fmt.Errorf("payment secret key is required unless PAYMENT_VERIFY_DISABLED is set")
	}

	if c.Payment.RedirectURL == "" {
		return fmt.Errorf("payment redirect URL is required")
	}

	if len(c.Payment.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default currency: %q", c.Payment.DefaultCurrency)
	}

	if c.Payment.SessionTTL <= 0 {
		return fmt.Errorf("payment session TTL must be positive")
	}

	switch c.Email.Provider {
	case "log":
	case "sendgrid":
		if c.Email.SendGridKey == "" {
			return fmt.Errorf("SendGrid API key is required when email provider is sendgrid")
		}
	case "postmark":
		if c.Email.PostmarkToken == "" {
			return fmt.Errorf("Postmark API token is required when email provider is postmark")
		}
	default:
		return fmt.Errorf("invalid email provider: %s (must be log, sendgrid, or postmark)", c.Email.Provider)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Storage.MaxUploadMB < 1 {
		return fmt.Errorf("upload size limit must be at least 1 MB")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.OrderTopic == "" {
			return fmt.Errorf("kafka order topic is required when kafka is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration ("30m", "24h").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
