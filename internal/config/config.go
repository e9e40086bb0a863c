package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Payment      PaymentConfig
	Storage      StorageConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicURL             string
	RequestTimeoutSeconds int
	RateLimitPerSecond    float64
	RateLimitBurst        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QueueDB  int
}

// MongoConfig points at the document store used for chat.
type MongoConfig struct {
	URI      string
	Database string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	AdminConfirmationCode   string
}

// NotificationConfig holds SMTP and recipient settings.
type NotificationConfig struct {
	EmailFrom         string
	AdminEmail        string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	MaxAttempts       int
	InitialBackoffMS  int
	HistorySize       int
	WorkerConcurrency int
}

// PaymentConfig holds gateway credentials.
type PaymentConfig struct {
	DefaultGateway     string
	Currency           string
	RazorpayKeyID      string
	RazorpayKeySecret  string
	StripeSecretKey    string
	StripePublishable  string
	CheckoutTTLMinutes int
}

// StorageConfig configures S3 attachment storage.
type StorageConfig struct {
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	MaxUploadBytes    int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "consulting-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicURL:             strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:3000"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			RateLimitPerSecond:    getEnvAsFloat("HTTP_RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:        getEnvAsInt("HTTP_RATE_LIMIT_BURST", 10),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			QueueDB:  getEnvAsInt("REDIS_QUEUE_DB", 1),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "consulting"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminConfirmationCode:   os.Getenv("ADMIN_CONFIRMATION_CODE"),
		},
		Notification: NotificationConfig{
			EmailFrom:         getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			SMTPHost:          os.Getenv("SMTP_HOST"),
			SMTPPort:          smtpPort,
			SMTPUser:          os.Getenv("SMTP_USER"),
			SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
			MaxAttempts:       getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			InitialBackoffMS:  getEnvAsInt("NOTIFY_INITIAL_BACKOFF_MS", 1000),
			HistorySize:       getEnvAsInt("NOTIFY_HISTORY_SIZE", 500),
			WorkerConcurrency: getEnvAsInt("NOTIFY_WORKER_CONCURRENCY", 4),
		},
		Payment: PaymentConfig{
			DefaultGateway:     getEnv("PAYMENT_DEFAULT_GATEWAY", "razorpay"),
			Currency:           strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
			RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
			RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
			StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
			StripePublishable:  os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			CheckoutTTLMinutes: getEnvAsInt("PAYMENT_CHECKOUT_TTL_MINUTES", 30),
		},
		Storage: StorageConfig{
			S3Region:          getEnv("AWS_REGION", "us-east-1"),
			S3Bucket:          os.Getenv("AWS_S3_BUCKET"),
			S3AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			MaxUploadBytes:    int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// InitialBackoff returns the delay before the first email retry.
func (n NotificationConfig) InitialBackoff() time.Duration {
	if n.InitialBackoffMS <= 0 {
		return time.Second
	}
	return time.Duration(n.InitialBackoffMS) * time.Millisecond
}

// CheckoutTTL returns how long a checkout session stays confirmable.
func (p PaymentConfig) CheckoutTTL() time.Duration {
	if p.CheckoutTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(p.CheckoutTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
