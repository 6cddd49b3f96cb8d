// Package catalog owns the store's product records, their stock levels, and
// the pricing policy. All stock mutation funnels through two guarded entry
// points: ReserveAndCommit for sales and AdjustQuantity for restocking.
package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/pricing"
)

// Product is a stocked good. Handed out by value; the catalog retains the
// authoritative copy and its quantity field.
type Product struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Category      pricing.Category `json:"category"`
	PurchasePrice float64          `json:"purchasePrice"`
	Expiration    time.Time        `json:"expiration"`
	Quantity      int              `json:"quantity"`
}

// Line is a (product, quantity) request against the catalog.
type Line struct {
	ProductID int
	Quantity  int
}

// CommittedLine is a priced line whose stock decrement has been applied.
type CommittedLine struct {
	ProductID int              `json:"productId"`
	Name      string           `json:"name"`
	Category  pricing.Category `json:"category"`
	Quantity  int              `json:"quantity"`
	UnitPrice float64          `json:"unitPrice"`
}

// Subtotal returns quantity times unit price for the line.
func (l CommittedLine) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// Filter narrows List results. Zero values disable each criterion.
type Filter struct {
	Category           pricing.Category
	ExpiredOnly        bool
	ExpiringWithinDays *int
	BelowQuantity      *int
	AsOf               time.Time
}

// Config groups Catalog construction parameters.
type Config struct {
	Policy pricing.Policy
	Now    func() time.Time
}

// Catalog is the authoritative in-memory store of products and policy.
// A single mutex makes batch validation plus decrement atomic with respect
// to every other mutation.
type Catalog struct {
	mu       sync.Mutex
	products map[int]*Product
	nextID   int
	policy   pricing.Policy
	now      func() time.Time
}

// New constructs a Catalog seeded with the provided pricing policy.
func New(cfg Config) *Catalog {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Catalog{
		products: make(map[int]*Product),
		nextID:   1,
		policy:   cfg.Policy,
		now:      now,
	}
}

// AddInput carries the attributes for a new product.
type AddInput struct {
	Name          string
	Category      pricing.Category
	PurchasePrice float64
	Expiration    time.Time
	Quantity      int
}

// Add registers a new product and assigns it the next id. Ids are never reused.
func (c *Catalog) Add(in AddInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, common.Invalid("name", "product name cannot be empty", nil)
	}
	if !in.Category.Valid() {
		return Product{}, common.Invalid("category", "category must be FOOD or NON_FOOD", nil)
	}
	if in.PurchasePrice <= 0 {
		return Product{}, common.Invalid("purchasePrice", "purchase price must be positive", nil)
	}
	if in.Quantity < 0 {
		return Product{}, common.Invalid("quantity", "quantity cannot be negative", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pricing.Expired(in.Expiration, c.now()) {
		return Product{}, common.Invalid("expiration", "cannot add an already expired product", nil)
	}
	p := &Product{
		ID:            c.nextID,
		Name:          name,
		Category:      in.Category,
		PurchasePrice: in.PurchasePrice,
		Expiration:    in.Expiration,
		Quantity:      in.Quantity,
	}
	c.nextID++
	c.products[p.ID] = p
	return *p, nil
}

// Get returns a copy of the product with the given id.
func (c *Catalog) Get(id int) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return *p, nil
}

// Remove deletes the product from the catalog. Historical receipts keep their
// own line snapshots and are unaffected.
func (c *Catalog) Remove(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	delete(c.products, id)
	return nil
}

// AdjustQuantity applies a restock delta (positive or negative) to a product.
// The resulting quantity may never drop below zero.
func (c *Catalog) AdjustQuantity(id, delta int) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	next := p.Quantity + delta
	if next < 0 {
		return Product{}, &InsufficientQuantityError{
			ProductID: id,
			Name:      p.Name,
			Requested: -delta,
			Available: p.Quantity,
		}
	}
	p.Quantity = next
	return *p, nil
}

// List returns products matching the filter, ordered by id.
func (c *Catalog) List(f Filter) []Product {
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.ExpiredOnly && !pricing.Expired(p.Expiration, asOf) {
			continue
		}
		if f.ExpiringWithinDays != nil {
			days := pricing.DaysBetween(asOf, p.Expiration)
			if days < 0 || days > *f.ExpiringWithinDays {
				continue
			}
		}
		if f.BelowQuantity != nil && p.Quantity >= *f.BelowQuantity {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns value copies of every product, ordered by id.
func (c *Catalog) Snapshot() []Product {
	return c.List(Filter{})
}

// Count returns the number of products currently tracked.
func (c *Catalog) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

// InventoryValue sums purchase price times quantity across the catalog.
func (c *Catalog) InventoryValue() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, p := range c.products {
		total += p.PurchasePrice * float64(p.Quantity)
	}
	return total
}

// Policy returns the current pricing policy.
func (c *Catalog) Policy() pricing.Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// SetMarkup updates the markup percentage for one category.
func (c *Catalog) SetMarkup(category pricing.Category, percent float64) (pricing.Policy, error) {
	if !category.Valid() {
		return pricing.Policy{}, common.Invalid("category", "category must be FOOD or NON_FOOD", nil)
	}
	if percent < 0 {
		return pricing.Policy{}, common.Invalid("percent", "markup percentage cannot be negative", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if category == pricing.NonFood {
		c.policy.NonFoodMarkupPercent = percent
	} else {
		c.policy.FoodMarkupPercent = percent
	}
	return c.policy, nil
}

// SetDiscount updates the expiration-discount window and percentage.
func (c *Catalog) SetDiscount(windowDays int, percent float64) (pricing.Policy, error) {
	if windowDays < 0 {
		return pricing.Policy{}, common.Invalid("windowDays", "discount window cannot be negative", nil)
	}
	if percent < 0 || percent > 100 {
		return pricing.Policy{}, common.Invalid("percent", "discount percentage must be between 0 and 100", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy.DiscountWindowDays = windowDays
	c.policy.DiscountPercent = percent
	return c.policy, nil
}

// Quote computes the current unit sell price for a product without mutating
// anything. Expired products still quote; selling them is guarded elsewhere.
func (c *Catalog) Quote(id int, asOf time.Time) (float64, error) {
	if asOf.IsZero() {
		asOf = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return 0, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return pricing.SellPrice(p.PurchasePrice, p.Category, p.Expiration, asOf, c.policy), nil
}

// ReserveAndCommit atomically validates every line against current stock and
// freshness, prices each line from the policy and product state read inside
// the critical section, and applies all decrements. On any failure nothing is
// mutated and the first violation in line order is returned. Requested
// quantities are accumulated per product so repeated lines cannot oversell.
func (c *Catalog) ReserveAndCommit(lines []Line, asOf time.Time) ([]CommittedLine, error) {
	if asOf.IsZero() {
		asOf = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	need := make(map[int]int, len(lines))
	for _, ln := range lines {
		p, ok := c.products[ln.ProductID]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("product %d: %w", ln.ProductID, ErrNotFound)
			}
			continue
		}
		if pricing.Expired(p.Expiration, asOf) {
			if firstErr == nil {
				firstErr = &ExpiredProductError{ProductID: p.ID, Name: p.Name, Expiration: p.Expiration}
			}
			continue
		}
		need[ln.ProductID] += ln.Quantity
		if need[ln.ProductID] > p.Quantity {
			if firstErr == nil {
				firstErr = &InsufficientQuantityError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: need[ln.ProductID],
					Available: p.Quantity,
				}
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	committed := make([]CommittedLine, 0, len(lines))
	for _, ln := range lines {
		p := c.products[ln.ProductID]
		unit := pricing.SellPrice(p.PurchasePrice, p.Category, p.Expiration, asOf, c.policy)
		p.Quantity -= ln.Quantity
		committed = append(committed, CommittedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Quantity:  ln.Quantity,
			UnitPrice: unit,
		})
	}
	return committed, nil
}

// AsAppError converts catalog domain errors into the canonical API error shape.
func AsAppError(err error) *common.AppError {
	var expired *ExpiredProductError
	var short *InsufficientQuantityError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, err)
	case errors.As(err, &expired):
		return &common.AppError{
			Code:       common.CodeExpiredProduct,
			Message:    expired.Error(),
			HTTPStatus: http.StatusConflict,
			Err:        err,
			Details:    map[string]any{"productId": expired.ProductID, "expiration": expired.Expiration.Format("2006-01-02")},
		}
	case errors.As(err, &short):
		return &common.AppError{
			Code:       common.CodeInsufficientQuantity,
			Message:    short.Error(),
			HTTPStatus: http.StatusConflict,
			Err:        err,
			Details: map[string]any{
				"productId": short.ProductID,
				"requested": short.Requested,
				"available": short.Available,
			},
		}
	default:
		return nil
	}
}
