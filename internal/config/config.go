package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the explicit configuration injected into the service at
// construction. Nothing reads the environment after Load returns.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBDatabase string

	RedisURL string

	CapricornBaseURL string
	CapricornAPIKey  string

	ProviderMaxRetries     int
	ProviderBackoffBase    time.Duration
	ProviderRequestTimeout time.Duration

	FraudBlockThreshold float64

	IdempotencyTTL time.Duration
	PatternTTL     time.Duration

	AccountsServiceURL string
}

func Load() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBDatabase: getEnv("DB_DATABASE", "routelink_db"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		CapricornBaseURL: getEnv("CAPRICORN_BASE_URL", "https://api.capricorn.ng"),
		CapricornAPIKey:  getEnv("CAPRICORN_API_KEY", ""),

		ProviderMaxRetries:     getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderBackoffBase:    getEnvDuration("PROVIDER_BACKOFF_BASE", time.Second),
		ProviderRequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 30*time.Second),

		FraudBlockThreshold: getEnvFloat("FRAUD_BLOCK_THRESHOLD", 50),

		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		PatternTTL:     getEnvDuration("PATTERN_TTL", time.Hour),

		AccountsServiceURL: getEnv("ACCOUNTS_SERVICE_URL", "http://account-service:8081"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
