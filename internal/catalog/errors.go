package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// ExpiredProductError reports an attempt to sell a product past its expiration date.
type ExpiredProductError struct {
	ProductID  int
	Name       string
	Expiration time.Time
}

func (e *ExpiredProductError) Error() string {
	return fmt.Sprintf("product %d (%s) expired on %s", e.ProductID, e.Name, e.Expiration.Format("2006-01-02"))
}

// InsufficientQuantityError reports a requested quantity exceeding on-hand stock.
type InsufficientQuantityError struct {
	ProductID int
	Name      string
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("product %d (%s): requested %d but only %d available", e.ProductID, e.Name, e.Requested, e.Available)
}

// Shortage returns how many units the request exceeded the available stock by.
func (e *InsufficientQuantityError) Shortage() int {
	return e.Requested - e.Available
}
