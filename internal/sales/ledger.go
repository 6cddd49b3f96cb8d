package sales

import (
	"fmt"
	"sync"
	"time"

	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/pricing"
)

// Ledger is the append-only receipt store. Receipt numbers start at 1 and
// increase by one per append with no gaps or reuse. Appended receipts are
// never modified or removed.
type Ledger struct {
	mu       sync.RWMutex
	receipts []Receipt
	byNumber map[int]int
	next     int
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byNumber: make(map[int]int),
		next:     1,
	}
}

// Append assigns the next receipt number and records the receipt.
func (l *Ledger) Append(r Receipt) Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	r.Number = l.next
	l.next++
	l.byNumber[r.Number] = len(l.receipts)
	l.receipts = append(l.receipts, r)
	return r
}

// ByNumber returns the receipt with the given number.
func (l *Ledger) ByNumber(number int) (Receipt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.byNumber[number]
	if !ok {
		return Receipt{}, common.NotFound("receipt", fmt.Errorf("receipt %d", number))
	}
	return l.receipts[pos], nil
}

// Count returns the number of receipts recorded so far.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.receipts)
}

// All returns a copy of every receipt in append order.
func (l *Ledger) All() []Receipt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Receipt(nil), l.receipts...)
}

// Range returns receipts issued on days from..to inclusive, in append order.
// Zero bounds are open-ended.
func (l *Ledger) Range(from, to time.Time) []Receipt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Receipt
	for _, r := range l.receipts {
		if !from.IsZero() && pricing.DaysBetween(from, r.IssuedAt) < 0 {
			continue
		}
		if !to.IsZero() && pricing.DaysBetween(r.IssuedAt, to) < 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SumRange totals receipt amounts issued on days from..to inclusive.
func (l *Ledger) SumRange(from, to time.Time) float64 {
	var total float64
	for _, r := range l.Range(from, to) {
		total += r.Total
	}
	return total
}
