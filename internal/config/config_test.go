package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimarket/pos-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"REDIS_URL":                      "redis://localhost:6379/0",
		"PORT":                           "",
		"PRICING_FOOD_MARKUP_PERCENT":    "",
		"PRICING_NONFOOD_MARKUP_PERCENT": "",
		"PRICING_DISCOUNT_WINDOW_DAYS":   "",
		"PRICING_DISCOUNT_PERCENT":       "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 20.0, cfg.DefaultPolicy.FoodMarkupPercent)
	require.Equal(t, 25.0, cfg.DefaultPolicy.NonFoodMarkupPercent)
	require.Equal(t, 5, cfg.DefaultPolicy.DiscountWindowDays)
	require.Equal(t, 10.0, cfg.DefaultPolicy.DiscountPercent)
	require.Equal(t, "reports", cfg.ReportsDir)
}

func TestLoadRequiresRedis(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"REDIS_URL": ""})
	require.Error(t, err)
}

func TestLoadRejectsOutOfRangeDiscount(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"REDIS_URL":                "redis://localhost:6379/0",
		"PRICING_DISCOUNT_PERCENT": "140",
	})
	require.Error(t, err)
}
