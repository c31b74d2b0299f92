package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DBWriter DBConfig
	DBReader DBConfig

	// Environment
	NodeEnv string

	// Auth0 (admin auth for bypassed-payment-receipt + bearer-token management)
	Auth0Domain   string
	Auth0Audience string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// Server
	Port        string
	CORSOrigins []string

	// Crypto funding
	CryptoFundExcludedAddresses []string
}

// DBConfig holds a single Postgres pool's connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnString builds a libpq-style DSN for pgxpool.ParseConfig.
func (c DBConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	nodeEnv := getEnv("NODE_ENV", "dev")
	defaultPort := defaultDBPort(nodeEnv)

	writerPort, err := strconv.Atoi(getEnv("DB_PORT", defaultPort))
	if err != nil {
		return nil, fmt.Errorf("DB_PORT: %w", err)
	}
	readerPort, err := strconv.Atoi(getEnv("DB_READER_PORT", strconv.Itoa(writerPort)))
	if err != nil {
		return nil, fmt.Errorf("DB_READER_PORT: %w", err)
	}

	cfg := &Config{
		DBWriter: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     writerPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "turbo_winc_ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		DBReader: DBConfig{
			Host:     getEnv("DB_READER_HOST", getEnv("DB_HOST", "localhost")),
			Port:     readerPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "turbo_winc_ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		NodeEnv:                     nodeEnv,
		Auth0Domain:                 getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:               getEnv("AUTH0_AUDIENCE", ""),
		StripeSecretKey:             getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:         getEnv("STRIPE_WEBHOOK_SECRET", ""),
		Port:                        getEnv("PORT", "8080"),
		CORSOrigins:                 splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		CryptoFundExcludedAddresses: splitCSV(getEnv("CRYPTO_FUND_EXCLUDED_ADDRESSES", "")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.NodeEnv {
	case "test", "dev", "prod":
	default:
		return fmt.Errorf("NODE_ENV must be one of test, dev, prod, got %q", c.NodeEnv)
	}
	if c.DBWriter.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.NodeEnv == "prod" {
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in prod")
		}
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required in prod")
		}
	}
	return nil
}

// defaultDBPort mirrors the teacher's per-environment default port
// convention: test runs against a separate local Postgres instance so
// it never collides with a dev database on the standard port.
func defaultDBPort(nodeEnv string) string {
	if nodeEnv == "test" {
		return "5433"
	}
	return "5432"
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
