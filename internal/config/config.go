package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/minimarket/pos-api/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreName          string
	RedisURL           string
	CORSAllowedOrigins []string

	// DefaultPolicy seeds the catalog's pricing policy at startup; it is
	// mutable afterwards through the admin endpoints.
	DefaultPolicy pricing.Policy

	RegisterCount      int
	ReportsDir         string
	ReportCacheTTL     time.Duration
	ExpiryWarningDays  int
	LowStockThreshold  int
	RateLimit          string
	WorkerConcurrency  int
	DailyReportHourUTC int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreName:          valueOrDefault(k.String("STORE_NAME"), "Mini Market"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DefaultPolicy: pricing.Policy{
			FoodMarkupPercent:    parseFloat(k.String("PRICING_FOOD_MARKUP_PERCENT"), 20),
			NonFoodMarkupPercent: parseFloat(k.String("PRICING_NONFOOD_MARKUP_PERCENT"), 25),
			DiscountWindowDays:   parseInt(k.String("PRICING_DISCOUNT_WINDOW_DAYS"), 5),
			DiscountPercent:      parseFloat(k.String("PRICING_DISCOUNT_PERCENT"), 10),
		},
		RegisterCount:      parseInt(k.String("STORE_REGISTER_COUNT"), 5),
		ReportsDir:         valueOrDefault(k.String("REPORTS_DIR"), "reports"),
		ReportCacheTTL:     parseDuration(k.String("REPORT_CACHE_TTL"), "5m"),
		ExpiryWarningDays:  parseInt(k.String("REPORT_EXPIRY_WARNING_DAYS"), 7),
		LowStockThreshold:  parseInt(k.String("REPORT_LOW_STOCK_THRESHOLD"), 5),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "300-M"),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 4),
		DailyReportHourUTC: parseInt(k.String("REPORT_DAILY_HOUR_UTC"), 21),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DefaultPolicy.FoodMarkupPercent < 0 || cfg.DefaultPolicy.NonFoodMarkupPercent < 0 {
		return nil, errors.New("markup percentages cannot be negative")
	}
	if cfg.DefaultPolicy.DiscountWindowDays < 0 {
		return nil, errors.New("PRICING_DISCOUNT_WINDOW_DAYS cannot be negative")
	}
	if cfg.DefaultPolicy.DiscountPercent < 0 || cfg.DefaultPolicy.DiscountPercent > 100 {
		return nil, errors.New("PRICING_DISCOUNT_PERCENT must be between 0 and 100")
	}
	if cfg.RegisterCount < 1 {
		return nil, errors.New("STORE_REGISTER_COUNT must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
