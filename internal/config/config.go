package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Config struct {
	// Notifications (from .env)
	SlackWebhookURL string
	BotName         string
	EmailTo         string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SMTPFrom        string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Fetching
	UserAgent        string
	HTTPTimeout      time.Duration
	FetchMaxAttempts int

	// Change detection
	PriceChangeEpsilon    float64
	PriceChangeMinPercent float64

	// Timing
	CheckInterval   time.Duration
	ChecksPerMinute int

	// Status API
	StatusAPIPort   int
	APIKey          string
	CORSAllowOrigin string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Notifications
		SlackWebhookURL: envStr("SLACK_WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "PriceTracker"),
		EmailTo:         envStr("EMAIL_TO", ""),
		SMTPHost:        envStr("SMTP_HOST", ""),
		SMTPPort:        envInt("SMTP_PORT", 587),
		SMTPUser:        envStr("SMTP_USER", ""),
		SMTPPassword:    envStr("SMTP_PASSWORD", ""),
		SMTPFrom:        envStr("SMTP_FROM", ""),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "competitor_price_tracker"),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Fetching
		UserAgent:        envStr("USER_AGENT", defaultUserAgent),
		HTTPTimeout:      time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchMaxAttempts: envInt("FETCH_MAX_ATTEMPTS", 3),

		// Change detection
		PriceChangeEpsilon:    envFloat("PRICE_CHANGE_EPSILON", 0.01),
		PriceChangeMinPercent: envFloat("PRICE_CHANGE_MIN_PERCENT", 0),

		// Timing
		CheckInterval:   time.Duration(envInt("CHECK_INTERVAL", 3600)) * time.Second,
		ChecksPerMinute: envInt("CHECKS_PER_MINUTE", 30),

		// Status API
		StatusAPIPort:   envInt("STATUS_API_PORT", 0),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Logging
		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DBName == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if c.CheckInterval < time.Second {
		errs = append(errs, "CHECK_INTERVAL must be at least 1 second")
	}
	if c.FetchMaxAttempts < 1 {
		errs = append(errs, "FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.EmailTo != "" && c.SMTPHost == "" {
		errs = append(errs, "SMTP_HOST is required when EMAIL_TO is set")
	}

	if c.SlackWebhookURL == "" && c.EmailTo == "" {
		fmt.Println("[WARN] SLACK_WEBHOOK_URL and EMAIL_TO are both unset — price changes will only be logged")
	}
	if c.StatusAPIPort > 0 && c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — status API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Competitor Price Tracker Configuration ===")
	fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	fmt.Println("----------------------------------------------")
	fmt.Println("Fetching:")
	fmt.Printf("  Timeout: %s\n", c.HTTPTimeout)
	fmt.Printf("  Max Attempts: %d\n", c.FetchMaxAttempts)
	fmt.Printf("  Checks/Minute: %d\n", c.ChecksPerMinute)
	fmt.Println("Change Detection:")
	fmt.Printf("  Epsilon: %.4f\n", c.PriceChangeEpsilon)
	if c.PriceChangeMinPercent > 0 {
		fmt.Printf("  Min Percent: %.2f%%\n", c.PriceChangeMinPercent)
	}
	fmt.Println("Notifications:")
	fmt.Printf("  Webhook: %s\n", boolLabel(c.SlackWebhookURL != "", "configured", "not set"))
	fmt.Printf("  Email: %s\n", boolLabel(c.EmailTo != "", c.EmailTo, "not set"))
	fmt.Println("Watch Mode:")
	fmt.Printf("  Interval: %s\n", c.CheckInterval)
	if c.StatusAPIPort > 0 {
		fmt.Printf("  Status API: port %d\n", c.StatusAPIPort)
	} else {
		fmt.Println("  Status API: disabled")
	}
	fmt.Println("==============================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
