// Package register models the store's physical cash registers. A register may
// be staffed by one cashier at a time and keeps a running tally of the sales
// rung through it.
package register

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/minimarket/pos-api/internal/common"
)

// Register is one cash register. CashierID is zero when unstaffed.
type Register struct {
	Number     int     `json:"number"`
	CashierID  int     `json:"cashierId,omitempty"`
	SaleCount  int     `json:"saleCount"`
	TotalRung  float64 `json:"totalRung"`
	LastSaleAt string  `json:"lastSaleAt,omitempty"`
}

type dayKey string

func toDayKey(t time.Time) dayKey {
	return dayKey(t.UTC().Format("2006-01-02"))
}

type register struct {
	Register
	dailyTotals map[dayKey]float64
}

// Bank is the fixed set of registers, keyed by register number starting at 1.
type Bank struct {
	mu        sync.Mutex
	registers map[int]*register
}

// NewBank constructs a bank of count registers numbered 1..count.
func NewBank(count int) *Bank {
	if count < 1 {
		count = 1
	}
	b := &Bank{registers: make(map[int]*register, count)}
	for n := 1; n <= count; n++ {
		b.registers[n] = &register{
			Register:    Register{Number: n},
			dailyTotals: make(map[dayKey]float64),
		}
	}
	return b
}

// Get returns the register with the given number.
func (b *Bank) Get(number int) (Register, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.registers[number]
	if !ok {
		return Register{}, common.NotFound("register", fmt.Errorf("register %d", number))
	}
	return reg.Register, nil
}

// List returns every register ordered by number.
func (b *Bank) List() []Register {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Register, 0, len(b.registers))
	for _, reg := range b.registers {
		out = append(out, reg.Register)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Assign staffs the register with a cashier. Assigning cashier id zero
// vacates the register.
func (b *Bank) Assign(number, cashierID int) (Register, error) {
	if cashierID < 0 {
		return Register{}, common.Invalid("cashierId", "cashier id cannot be negative", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.registers[number]
	if !ok {
		return Register{}, common.NotFound("register", fmt.Errorf("register %d", number))
	}
	reg.CashierID = cashierID
	return reg.Register, nil
}

// RecordSale tallies a committed sale against the register.
func (b *Bank) RecordSale(number int, amount float64, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.registers[number]
	if !ok {
		return common.NotFound("register", fmt.Errorf("register %d", number))
	}
	reg.SaleCount++
	reg.TotalRung += amount
	reg.LastSaleAt = at.UTC().Format(time.RFC3339)
	reg.dailyTotals[toDayKey(at)] += amount
	return nil
}

// DailyTotal returns the amount a register rang up on the given day.
func (b *Bank) DailyTotal(number int, day time.Time) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, ok := b.registers[number]
	if !ok {
		return 0, common.NotFound("register", fmt.Errorf("register %d", number))
	}
	return reg.dailyTotals[toDayKey(day)], nil
}
