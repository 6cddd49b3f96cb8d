package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minimarket/pos-api/internal/pricing"
)

func day(offset int) time.Time {
	base := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestSellPriceMarkupOnly(t *testing.T) {
	policy := pricing.Policy{FoodMarkupPercent: 20, DiscountWindowDays: 5, DiscountPercent: 10}
	// Expiration 10 days out, outside the discount window.
	price := pricing.SellPrice(10, pricing.Food, day(10), day(0), policy)
	require.InDelta(t, 12.00, price, 1e-9)
}

func TestSellPriceDiscounted(t *testing.T) {
	policy := pricing.Policy{FoodMarkupPercent: 20, DiscountWindowDays: 5, DiscountPercent: 10}
	// Expiration 3 days out: 12.00 marked up, then 10% off.
	price := pricing.SellPrice(10, pricing.Food, day(3), day(0), policy)
	require.InDelta(t, 10.80, price, 1e-9)
}

func TestSellPriceDiscountBoundary(t *testing.T) {
	policy := pricing.Policy{NonFoodMarkupPercent: 50, DiscountWindowDays: 5, DiscountPercent: 20}
	atBoundary := pricing.SellPrice(10, pricing.NonFood, day(5), day(0), policy)
	require.InDelta(t, 12.00, atBoundary, 1e-9, "daysRemaining == window applies the discount")
	pastBoundary := pricing.SellPrice(10, pricing.NonFood, day(6), day(0), policy)
	require.InDelta(t, 15.00, pastBoundary, 1e-9, "daysRemaining == window+1 does not")
}

func TestSellPriceCategorySelectsMarkup(t *testing.T) {
	policy := pricing.Policy{FoodMarkupPercent: 20, NonFoodMarkupPercent: 40, DiscountWindowDays: 0, DiscountPercent: 50}
	exp := day(30)
	require.InDelta(t, 12.00, pricing.SellPrice(10, pricing.Food, exp, day(0), policy), 1e-9)
	require.InDelta(t, 14.00, pricing.SellPrice(10, pricing.NonFood, exp, day(0), policy), 1e-9)
}

func TestSellPriceDeterministic(t *testing.T) {
	policy := pricing.Policy{FoodMarkupPercent: 17.5, DiscountWindowDays: 3, DiscountPercent: 12.5}
	first := pricing.SellPrice(9.99, pricing.Food, day(2), day(0), policy)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, pricing.SellPrice(9.99, pricing.Food, day(2), day(0), policy))
	}
}

func TestDaysBetween(t *testing.T) {
	require.Equal(t, 0, pricing.DaysBetween(day(0), day(0)))
	require.Equal(t, 7, pricing.DaysBetween(day(0), day(7)))
	require.Equal(t, -2, pricing.DaysBetween(day(0), day(-2)))
	// Time-of-day must not influence the whole-day count.
	late := day(0).Add(23 * time.Hour)
	require.Equal(t, 1, pricing.DaysBetween(late, day(1)))
}

func TestExpired(t *testing.T) {
	require.False(t, pricing.Expired(day(0), day(0)), "expiring today is not expired")
	require.True(t, pricing.Expired(day(-1), day(0)))
	require.False(t, pricing.Expired(day(1), day(0)))
}
