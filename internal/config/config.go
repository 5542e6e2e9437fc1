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

// Config holds all application configuration
type Config struct {
	BotToken string
	Database DatabaseConfig
	API      APIConfig
	Payment  PaymentConfig
	Cleanup  CleanupConfig
	// ProfileURL is where users create their freelancer profile
	ProfileURL string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// APIConfig holds marketplace backend settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaymentConfig holds subscription payment settings
type PaymentConfig struct {
	Amount      decimal.Decimal
	CountryCode string
}

// CleanupConfig holds the payment attempt housekeeping schedule
type CleanupConfig struct {
	Interval      time.Duration
	StaleAfter    time.Duration
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "gigsbot"),
			User:     getEnv("DB_USER", "gigsbot"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		API: APIConfig{
			BaseURL: os.Getenv("API_BASE_URL"),
		},
		Payment: PaymentConfig{
			CountryCode: getEnv("COUNTRY_CODE", "254"),
		},
		ProfileURL: getEnv("PROFILE_URL", "https://mygigs.africa/freelancer/create-profile"),
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return nil, fmt.Errorf("API_BASE_URL must be an http(s) URL")
	}

	timeout, err := positiveDuration("API_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.API.Timeout = timeout

	amount, err := decimal.NewFromString(getEnv("SUBSCRIPTION_AMOUNT", "250"))
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("SUBSCRIPTION_AMOUNT must be a positive amount")
	}
	cfg.Payment.Amount = amount

	if cfg.Cleanup.Interval, err = positiveDuration("CLEANUP_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.Cleanup.StaleAfter, err = positiveDuration("ATTEMPT_STALE_AFTER", "1h"); err != nil {
		return nil, err
	}
	days, err := strconv.Atoi(getEnv("ATTEMPT_RETENTION_DAYS", "60"))
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("ATTEMPT_RETENTION_DAYS must be a positive number of days")
	}
	cfg.Cleanup.RetentionDays = days

	for _, r := range cfg.Payment.CountryCode {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("COUNTRY_CODE must contain digits only")
		}
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func positiveDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
