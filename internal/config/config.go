package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	LogLevel    string

	PaymentBaseURL   string
	PaymentSecretKey string
	PaymentCID       string
	PaymentTimeout   time.Duration
	CallbackBaseURL  string
	VerifyBaseURL    string

	JWTSecret string

	RedisAddr       string
	ProductCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	WorkerPoolSize  int
	SweepInterval   time.Duration
	SweepBatchSize  int
	PendingOrderTTL time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress      = ":8080"
	defaultLogLevel        = "info"
	defaultPaymentBaseURL  = "https://open-api.kakaopay.com"
	defaultPaymentCID      = "TC0ONETIME"
	defaultPaymentTimeout  = 10 * time.Second
	defaultCallbackBaseURL = "http://localhost:8080"
	defaultVerifyBaseURL   = "http://localhost:3000/auth/verify"
	defaultJWTSecret       = "change-me-in-production"
	defaultProductCacheTTL = 5 * time.Minute
	defaultKafkaTopic      = "shopmart.events"
	defaultWorkerPoolSize  = 4
	defaultSweepInterval   = time.Minute
	defaultSweepBatchSize  = 32
	defaultPendingOrderTTL = 30 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		LogLevel:         getString(lookup, "LOG_LEVEL", defaultLogLevel),
		PaymentBaseURL:   getString(lookup, "PAYMENT_BASE_URL", defaultPaymentBaseURL),
		PaymentSecretKey: getString(lookup, "PAYMENT_SECRET_KEY", ""),
		PaymentCID:       getString(lookup, "PAYMENT_CID", defaultPaymentCID),
		PaymentTimeout:   getDuration(lookup, "PAYMENT_TIMEOUT", defaultPaymentTimeout),
		CallbackBaseURL:  getString(lookup, "CALLBACK_BASE_URL", defaultCallbackBaseURL),
		VerifyBaseURL:    getString(lookup, "VERIFY_BASE_URL", defaultVerifyBaseURL),
		JWTSecret:        getString(lookup, "JWT_SECRET", defaultJWTSecret),
		RedisAddr:        getString(lookup, "REDIS_ADDR", ""),
		ProductCacheTTL:  getDuration(lookup, "PRODUCT_CACHE_TTL", defaultProductCacheTTL),
		KafkaTopic:       getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		SweepInterval:    getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatchSize:   getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatchSize),
		PendingOrderTTL:  getDuration(lookup, "PENDING_ORDER_TTL", defaultPendingOrderTTL),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("shopmart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		kafkaBrokers       = getString(lookup, "KAFKA_BROKERS", "")
		paymentTimeoutStr  = cfg.PaymentTimeout.String()
		cacheTTLStr        = cfg.ProductCacheTTL.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
		pendingTTLStr      = cfg.PendingOrderTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.PaymentBaseURL, "p", cfg.PaymentBaseURL, "Payment gateway base URL")
	fs.StringVar(&cfg.PaymentSecretKey, "payment-secret", cfg.PaymentSecretKey, "Payment gateway secret key")
	fs.StringVar(&cfg.PaymentCID, "payment-cid", cfg.PaymentCID, "Payment gateway merchant id")
	fs.StringVar(&paymentTimeoutStr, "payment-timeout", paymentTimeoutStr, "Payment gateway request timeout")
	fs.StringVar(&cfg.CallbackBaseURL, "callback-url", cfg.CallbackBaseURL, "Public base URL for payment callbacks")
	fs.StringVar(&cfg.VerifyBaseURL, "verify-url", cfg.VerifyBaseURL, "Link prefix for account verification")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the product cache")
	fs.StringVar(&cacheTTLStr, "cache-ttl", cacheTTLStr, "Product cache entry lifetime")
	fs.StringVar(&kafkaBrokers, "kafka", kafkaBrokers, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for domain events")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending order sweeps")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum orders per sweep")
	fs.StringVar(&pendingTTLStr, "pending-ttl", pendingTTLStr, "Age after which unpaid orders are cancelled")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.PaymentTimeout, err = time.ParseDuration(paymentTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid payment timeout: %w", err)
	}
	if cfg.ProductCacheTTL, err = time.ParseDuration(cacheTTLStr); err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}
	if cfg.PendingOrderTTL, err = time.ParseDuration(pendingTTLStr); err != nil {
		return nil, fmt.Errorf("invalid pending ttl: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if err := readSecretFile(lookup, "JWT_SECRET_FILE", &cfg.JWTSecret); err != nil {
		return nil, fmt.Errorf("read jwt secret file: %w", err)
	}
	if err := readSecretFile(lookup, "PAYMENT_SECRET_KEY_FILE", &cfg.PaymentSecretKey); err != nil {
		return nil, fmt.Errorf("read payment secret file: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.PendingOrderTTL <= 0 {
		cfg.PendingOrderTTL = defaultPendingOrderTTL
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = defaultPaymentTimeout
	}
	if cfg.ProductCacheTTL <= 0 {
		cfg.ProductCacheTTL = defaultProductCacheTTL
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.PaymentSecretKey == "" {
		return nil, fmt.Errorf("payment secret key must be provided")
	}

	return cfg, nil
}

func readSecretFile(lookup envLookup, key string, dst *string) error {
	path, ok := lookup(key)
	if !ok || path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*dst = strings.TrimSpace(string(content))
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
