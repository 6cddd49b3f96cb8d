package register

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBankNumbering(t *testing.T) {
	b := NewBank(3)
	regs := b.List()
	require.Len(t, regs, 3)
	require.Equal(t, 1, regs[0].Number)
	require.Equal(t, 3, regs[2].Number)

	_, err := b.Get(4)
	require.Error(t, err)
}

func TestAssignAndVacate(t *testing.T) {
	b := NewBank(2)

	reg, err := b.Assign(1, 7)
	require.NoError(t, err)
	require.Equal(t, 7, reg.CashierID)

	reg, err = b.Assign(1, 0)
	require.NoError(t, err)
	require.Zero(t, reg.CashierID)

	_, err = b.Assign(9, 7)
	require.Error(t, err)
	_, err = b.Assign(1, -1)
	require.Error(t, err)
}

func TestRecordSaleAndDailyTotals(t *testing.T) {
	b := NewBank(1)
	day1 := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 28, 16, 45, 0, 0, time.UTC)

	require.NoError(t, b.RecordSale(1, 12.50, day1))
	require.NoError(t, b.RecordSale(1, 7.50, day1))
	require.NoError(t, b.RecordSale(1, 5.00, day2))

	reg, err := b.Get(1)
	require.NoError(t, err)
	require.Equal(t, 3, reg.SaleCount)
	require.InDelta(t, 25.0, reg.TotalRung, 1e-9)

	total, err := b.DailyTotal(1, day1)
	require.NoError(t, err)
	require.InDelta(t, 20.0, total, 1e-9)

	total, err = b.DailyTotal(1, day2)
	require.NoError(t, err)
	require.InDelta(t, 5.0, total, 1e-9)

	total, err = b.DailyTotal(1, day2.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Zero(t, total)

	require.Error(t, b.RecordSale(9, 1, day1))
}
