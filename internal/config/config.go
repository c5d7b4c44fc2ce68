package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Scheduler SchedulerConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Notify    NotifyConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port      string
	Host      string
	Addr      string // Combined host:port for convenience
	RateLimit int    // Mutating ledger requests per minute per client IP
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Period is a calendar interval applied with time.AddDate. A one-month period
// lands on the same day of the next month, except that a day the next month lacks
// overflows into the month after (Jan 31 + 1 month is Mar 3, or Mar 2 in a leap year).
type Period struct {
	Months int
	Days   int
}

// After returns the first instant at which a period started at t has elapsed.
func (p Period) After(t time.Time) time.Time {
	return t.AddDate(0, p.Months, p.Days)
}

// IsZero reports whether the period has no length.
func (p Period) IsZero() bool {
	return p.Months == 0 && p.Days == 0
}

// LedgerConfig holds the settlement engine parameters. It is passed to the
// services at construction; nothing in the ledger reads it from globals.
type LedgerConfig struct {
	// RentalShareFactor is the investors' share of rental income (platform cut applied).
	RentalShareFactor decimal.Decimal
	// DistributionPeriod is the interval between two return payments on one investment.
	DistributionPeriod Period
	// SweepWorkers bounds how many properties are swept in parallel.
	SweepWorkers int
	// MaxRetries bounds optimistic-concurrency retries per operation.
	MaxRetries uint64
}

// SchedulerConfig holds the cron schedule of the return distribution sweep.
type SchedulerConfig struct {
	Spec    string
	Enabled bool
}

// AuthConfig holds the fernet keys used to verify caller identity tokens.
type AuthConfig struct {
	Keys     string
	TokenTTL time.Duration
}

// RedisConfig holds the optional redis connection used for the sweep lease.
type RedisConfig struct {
	URL string
}

// NotifyConfig holds the optional webhook that receives settlement notifications.
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// DefaultLedgerConfig returns the ledger parameters the platform runs with
// when nothing is overridden.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		RentalShareFactor:  decimal.RequireFromString("0.6"),
		DistributionPeriod: Period{Months: 1},
		SweepWorkers:       4,
		MaxRetries:         3,
	}
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	ledger := DefaultLedgerConfig()

	factor, err := decimal.NewFromString(getEnv("RENTAL_SHARE_FACTOR", ledger.RentalShareFactor.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid RENTAL_SHARE_FACTOR: %w", err)
	}
	if factor.IsNegative() || factor.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("RENTAL_SHARE_FACTOR must be between 0 and 1, got %s", factor)
	}
	ledger.RentalShareFactor = factor

	if ledger.DistributionPeriod.Months, err = getEnvInt("DISTRIBUTION_PERIOD_MONTHS", ledger.DistributionPeriod.Months); err != nil {
		return nil, err
	}
	if ledger.DistributionPeriod.Days, err = getEnvInt("DISTRIBUTION_PERIOD_DAYS", ledger.DistributionPeriod.Days); err != nil {
		return nil, err
	}
	if ledger.DistributionPeriod.IsZero() {
		return nil, fmt.Errorf("distribution period cannot be zero")
	}
	if ledger.SweepWorkers, err = getEnvInt("DISTRIBUTION_WORKERS", ledger.SweepWorkers); err != nil {
		return nil, err
	}
	retries, err := getEnvInt("SETTLEMENT_MAX_RETRIES", int(ledger.MaxRetries))
	if err != nil {
		return nil, err
	}
	ledger.MaxRetries = uint64(max(retries, 0))

	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := time.ParseDuration(getEnv("AUTH_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}

	notifyTimeout, err := time.ParseDuration(getEnv("NOTIFY_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "5001"),
			Host:      getEnv("SERVER_HOST", "localhost"),
			RateLimit: rateLimit,
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/ledger.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Ledger: ledger,
		Scheduler: SchedulerConfig{
			Spec:    getEnv("DISTRIBUTION_SCHEDULE", "@daily"),
			Enabled: getEnv("DISTRIBUTION_ENABLED", "true") == "true",
		},
		Auth: AuthConfig{
			Keys:     os.Getenv("AUTH_FERNET_KEYS"),
			TokenTTL: tokenTTL,
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Timeout:    notifyTimeout,
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
