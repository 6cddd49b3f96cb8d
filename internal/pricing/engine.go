// Package pricing computes sell prices from catalog snapshots and the
// store-wide pricing policy. All monetary amounts in this module are float64;
// no rounding is performed here, currency formatting is a presentation concern.
package pricing

import "time"

// Category selects which markup percentage applies to a product.
type Category string

const (
	// Food products use the food markup percentage.
	Food Category = "FOOD"
	// NonFood products use the non-food markup percentage.
	NonFood Category = "NON_FOOD"
)

// Valid reports whether the category is one of the known variants.
func (c Category) Valid() bool {
	return c == Food || c == NonFood
}

// Policy holds the store-wide markup and expiration-discount parameters.
// It is read at the moment of each price computation; prices are never cached.
type Policy struct {
	FoodMarkupPercent    float64 `json:"foodMarkupPercent"`
	NonFoodMarkupPercent float64 `json:"nonFoodMarkupPercent"`
	DiscountWindowDays   int     `json:"discountWindowDays"`
	DiscountPercent      float64 `json:"discountPercent"`
}

// MarkupFor returns the markup percentage for the given category.
func (p Policy) MarkupFor(c Category) float64 {
	if c == NonFood {
		return p.NonFoodMarkupPercent
	}
	return p.FoodMarkupPercent
}

// SellPrice derives the unit sell price for a product snapshot.
//
// The purchase price is marked up by the category percentage, then discounted
// when the product expires within the policy's discount window (boundary
// inclusive: daysRemaining == DiscountWindowDays still discounts). The
// discount applies to the marked-up price, never to the purchase price.
// A negative daysRemaining (already expired) is well-defined; callers guard
// against selling expired stock separately.
func SellPrice(purchasePrice float64, category Category, expiration, asOf time.Time, policy Policy) float64 {
	base := purchasePrice * (1 + policy.MarkupFor(category)/100)
	if DaysBetween(asOf, expiration) <= policy.DiscountWindowDays {
		return base * (1 - policy.DiscountPercent/100)
	}
	return base
}

// DaysBetween returns the number of whole calendar days from one instant's
// date to another's. The result is negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	fromDay := truncateToDay(from)
	toDay := truncateToDay(to)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// Expired reports whether the expiration date lies strictly before asOf's date.
func Expired(expiration, asOf time.Time) bool {
	return DaysBetween(asOf, expiration) < 0
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
