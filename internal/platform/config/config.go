package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

const (
	defaultJWTSecret     = "a-very-secret-key-should-be-longer-and-random"
	defaultSigningSecret = "default_insecure_signing_secret_please_change_this_!@#$"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	StorageDriver string
	MigrationsURL string

	// Operator tokens
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Signing-link tokens
	SigningTokenSecret         string
	SigningTokenExpiryDuration time.Duration

	RedisURL      string
	SignRateLimit string

	CompletionRetryAttempts int
	CompletionRetryBackoff  time.Duration

	CORSAllowedOrigins []string

	// Completion events; empty KafkaBrokers disables publishing.
	KafkaBrokers         []string
	KafkaCompletionTopic string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("JWT_ISSUER", "doc-signing-app")
	v.SetDefault("SIGNING_TOKEN_SECRET", defaultSigningSecret)
	v.SetDefault("SIGNING_TOKEN_EXPIRY_DURATION", "336h")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SIGN_RATE_LIMIT", "20-M")
	v.SetDefault("COMPLETION_RETRY_ATTEMPTS", 3)
	v.SetDefault("COMPLETION_RETRY_BACKOFF", "50ms")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_COMPLETION_TOPIC", "documents.completed")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		StorageDriver:      strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		MigrationsURL:      v.GetString("MIGRATIONS_PATH"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		SigningTokenSecret: v.GetString("SIGNING_TOKEN_SECRET"),
		RedisURL:           v.GetString("REDIS_URL"),
		SignRateLimit:      v.GetString("SIGN_RATE_LIMIT"),

		KafkaCompletionTopic: strings.TrimSpace(v.GetString("KAFKA_COMPLETION_TOPIC")),
	}

	var err error
	if cfg.JWTExpiryDuration, err = duration(v, "JWT_EXPIRY_DURATION", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SigningTokenExpiryDuration, err = duration(v, "SIGNING_TOKEN_EXPIRY_DURATION", 14*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CompletionRetryBackoff, err = duration(v, "COMPLETION_RETRY_BACKOFF", 50*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.CompletionRetryAttempts = v.GetInt("COMPLETION_RETRY_ATTEMPTS")
	if cfg.CompletionRetryAttempts < 1 {
		return nil, fmt.Errorf("COMPLETION_RETRY_ATTEMPTS must be at least 1, got %d", cfg.CompletionRetryAttempts)
	}

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaCompletionTopic == "" {
		return nil, fmt.Errorf("KAFKA_COMPLETION_TOPIC is required when KAFKA_BROKERS is set")
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT not set, using default", slog.String("port", cfg.Port))
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER is %q", StorageDriverPostgres)
		}
	case StorageDriverMemory:
		if cfg.IsProduction {
			return nil, fmt.Errorf("STORAGE_DRIVER %q is not allowed in production", StorageDriverMemory)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == defaultJWTSecret || cfg.SigningTokenSecret == defaultSigningSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET and SIGNING_TOKEN_SECRET must be set in production")
		}
		slog.Warn("Using default token secrets. THIS IS NOT FOR PRODUCTION.")
	}
	if cfg.SigningTokenSecret == cfg.JWTSecret {
		slog.Warn("SIGNING_TOKEN_SECRET equals JWT_SECRET; signing links and operator tokens are interchangeable")
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
