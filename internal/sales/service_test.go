package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/employee"
	"github.com/minimarket/pos-api/internal/events"
	"github.com/minimarket/pos-api/internal/pricing"
	"github.com/minimarket/pos-api/internal/register"
)

var testNow = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func testService(t *testing.T) (*Service, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New(catalog.Config{
		Policy: pricing.Policy{
			FoodMarkupPercent:    20,
			NonFoodMarkupPercent: 25,
			DiscountWindowDays:   5,
			DiscountPercent:      10,
		},
		Now: func() time.Time { return testNow },
	})
	svc := NewService(cat, NewLedger())
	svc.Now = func() time.Time { return testNow }
	return svc, cat
}

func seedProducts(t *testing.T, cat *catalog.Catalog) (milk, soap catalog.Product) {
	t.Helper()
	milk, err := cat.Add(catalog.AddInput{Name: "Milk", Category: pricing.Food, PurchasePrice: 10, Expiration: testNow.AddDate(0, 1, 0), Quantity: 10})
	require.NoError(t, err)
	soap, err = cat.Add(catalog.AddInput{Name: "Soap", Category: pricing.NonFood, PurchasePrice: 8, Expiration: testNow.AddDate(1, 0, 0), Quantity: 4})
	require.NoError(t, err)
	return milk, soap
}

func TestCompleteCommitsAndPrices(t *testing.T) {
	svc, cat := testService(t)
	milk, soap := seedProducts(t, cat)

	sale, err := svc.CreateSale(1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(sale.ID, milk.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(sale.ID, soap.ID, 2)
	require.NoError(t, err)

	receipt, err := svc.Complete(context.Background(), sale.ID, PayCash)
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Number)
	require.Equal(t, sale.ID, receipt.SaleID)
	require.Len(t, receipt.Lines, 2)
	require.InDelta(t, 12.0, receipt.Lines[0].UnitPrice, 1e-9)
	require.InDelta(t, 10.0, receipt.Lines[1].UnitPrice, 1e-9)
	require.InDelta(t, 56.0, receipt.Total, 1e-9)

	got, _ := cat.Get(milk.ID)
	require.Equal(t, 7, got.Quantity)
	got, _ = cat.Get(soap.ID)
	require.Equal(t, 2, got.Quantity)

	committed, err := svc.Get(sale.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCommitted, committed.Status)
}

func TestCompleteRejectsOnShortageWithoutSideEffects(t *testing.T) {
	svc, cat := testService(t)
	milk, soap := seedProducts(t, cat)

	sale, _ := svc.CreateSale(1, 1)
	svc.AddItem(sale.ID, milk.ID, 3)
	svc.AddItem(sale.ID, soap.ID, 5)

	_, err := svc.Complete(context.Background(), sale.ID, PayCard)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInsufficientQuantity, appErr.Code)

	// No decrement happened and no receipt number was consumed.
	got, _ := cat.Get(milk.ID)
	require.Equal(t, 10, got.Quantity)
	require.Equal(t, 0, svc.Ledger.Count())

	rejected, _ := svc.Get(sale.ID)
	require.Equal(t, StatusRejected, rejected.Status)

	// The next committed sale takes number 1.
	next, _ := svc.CreateSale(1, 1)
	svc.AddItem(next.ID, milk.ID, 1)
	receipt, err := svc.Complete(context.Background(), next.ID, PayCash)
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Number)
}

func TestCompleteRejectsExpiredProduct(t *testing.T) {
	svc, cat := testService(t)
	milk, err := cat.Add(catalog.AddInput{Name: "Milk", Category: pricing.Food, PurchasePrice: 10, Expiration: testNow.AddDate(0, 0, 2), Quantity: 5})
	require.NoError(t, err)

	sale, _ := svc.CreateSale(1, 1)
	svc.AddItem(sale.ID, milk.ID, 1)

	svc.Now = func() time.Time { return testNow.AddDate(0, 0, 3) }
	_, err = svc.Complete(context.Background(), sale.ID, PayCash)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeExpiredProduct, appErr.Code)

	got, _ := cat.Get(milk.ID)
	require.Equal(t, 5, got.Quantity)
}

func TestCompleteGuards(t *testing.T) {
	svc, cat := testService(t)
	milk, _ := seedProducts(t, cat)
	ctx := context.Background()

	sale, _ := svc.CreateSale(1, 1)

	// Empty basket is invalid input, not a rejection.
	_, err := svc.Complete(ctx, sale.ID, PayCash)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	open, _ := svc.Get(sale.ID)
	require.Equal(t, StatusOpen, open.Status)

	_, err = svc.Complete(ctx, sale.ID, "BARTER")
	require.Error(t, err)

	svc.AddItem(sale.ID, milk.ID, 1)
	_, err = svc.Complete(ctx, sale.ID, PayCash)
	require.NoError(t, err)

	// A committed sale can never change or complete again.
	_, err = svc.Complete(ctx, sale.ID, PayCash)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeIllegalState, appErr.Code)
	_, err = svc.AddItem(sale.ID, milk.ID, 1)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeIllegalState, appErr.Code)
}

func TestBasketEditing(t *testing.T) {
	svc, cat := testService(t)
	milk, soap := seedProducts(t, cat)

	sale, _ := svc.CreateSale(1, 1)

	_, err := svc.AddItem(sale.ID, 99, 1)
	require.Error(t, err)
	_, err = svc.AddItem(sale.ID, milk.ID, 0)
	require.Error(t, err)

	// Adding the same product twice accumulates onto one line.
	svc.AddItem(sale.ID, milk.ID, 2)
	svc.AddItem(sale.ID, soap.ID, 1)
	view, err := svc.AddItem(sale.ID, milk.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	require.Equal(t, milk.ID, view.Lines[0].ProductID)
	require.Equal(t, 5, view.Lines[0].Quantity)

	view, err = svc.UpdateItem(sale.ID, milk.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, view.Lines[0].Quantity)

	// Updating to zero drops the line; insertion order of the rest holds.
	view, err = svc.UpdateItem(sale.ID, milk.ID, 0)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, soap.ID, view.Lines[0].ProductID)

	_, err = svc.UpdateItem(sale.ID, milk.ID, 1)
	require.Error(t, err)

	view, err = svc.RemoveItem(sale.ID, soap.ID)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	_, err = svc.RemoveItem(sale.ID, soap.ID)
	require.Error(t, err)
}

func TestReceiptNumbersAreMonotonic(t *testing.T) {
	svc, cat := testService(t)
	milk, _ := seedProducts(t, cat)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		sale, err := svc.CreateSale(1, 1)
		require.NoError(t, err)
		_, err = svc.AddItem(sale.ID, milk.ID, 1)
		require.NoError(t, err)
		receipt, err := svc.Complete(ctx, sale.ID, PayCash)
		require.NoError(t, err)
		require.Equal(t, i, receipt.Number)
	}
	require.Equal(t, 5, svc.Ledger.Count())
}

func TestCompleteWithCollaborators(t *testing.T) {
	svc, cat := testService(t)
	milk, _ := seedProducts(t, cat)

	staff := employee.NewService()
	anna, err := staff.Hire(employee.HireInput{Name: "Anna", Position: employee.Cashier, MonthlySalary: 1200})
	require.NoError(t, err)
	boris, err := staff.Hire(employee.HireInput{Name: "Boris", Position: employee.Manager, MonthlySalary: 2000})
	require.NoError(t, err)

	log := events.NewLog()
	svc.Employees = staff
	svc.Registers = register.NewBank(2)
	svc.Events = &events.Bus{Store: log}

	// Managers cannot open sales, and unknown registers are refused.
	_, err = svc.CreateSale(boris.ID, 1)
	require.Error(t, err)
	_, err = svc.CreateSale(anna.ID, 9)
	require.Error(t, err)

	sale, err := svc.CreateSale(anna.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(sale.ID, milk.ID, 2)
	require.NoError(t, err)

	receipt, err := svc.Complete(context.Background(), sale.ID, PayCard)
	require.NoError(t, err)
	require.Equal(t, "Anna", receipt.CashierName)

	reg, err := svc.Registers.Get(2)
	require.NoError(t, err)
	require.Equal(t, 1, reg.SaleCount)
	require.InDelta(t, receipt.Total, reg.TotalRung, 1e-9)

	completed := log.ByTopic(events.TopicSaleCompleted)
	require.Len(t, completed, 1)
}

func TestLedgerRange(t *testing.T) {
	ledger := NewLedger()
	day := func(d int) time.Time { return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC) }
	for d := 25; d <= 29; d++ {
		ledger.Append(Receipt{IssuedAt: day(d), Total: 10})
	}

	require.Len(t, ledger.Range(day(26), day(28)), 3)
	require.Len(t, ledger.Range(time.Time{}, day(26)), 2)
	require.Len(t, ledger.Range(day(29), time.Time{}), 1)
	require.InDelta(t, 30.0, ledger.SumRange(day(26), day(28)), 1e-9)

	first, err := ledger.ByNumber(1)
	require.NoError(t, err)
	require.Equal(t, day(25), first.IssuedAt)
	_, err = ledger.ByNumber(99)
	require.Error(t, err)
}

func TestConcurrentCompletionsNeverOversell(t *testing.T) {
	svc, cat := testService(t)
	water, err := cat.Add(catalog.AddInput{Name: "Water", Category: pricing.Food, PurchasePrice: 5, Expiration: testNow.AddDate(0, 2, 0), Quantity: 10})
	require.NoError(t, err)

	const workers = 8
	const perSale = 3

	saleIDs := make([]int, workers)
	for i := range saleIDs {
		sale, err := svc.CreateSale(1, 1)
		require.NoError(t, err)
		_, err = svc.AddItem(sale.ID, water.ID, perSale)
		require.NoError(t, err)
		saleIDs[i] = sale.ID
	}

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for _, id := range saleIDs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.Complete(context.Background(), id, PayCash)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	committed := 0
	for err := range errs {
		if err == nil {
			committed++
			continue
		}
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, common.CodeInsufficientQuantity, appErr.Code)
	}

	// Ten units satisfy exactly three sales of three units each; every other
	// completion must see the shortage regardless of interleaving.
	require.Equal(t, 3, committed)
	got, err := cat.Get(water.ID)
	require.NoError(t, err)
	require.Equal(t, 10-committed*perSale, got.Quantity)
	require.GreaterOrEqual(t, got.Quantity, 0)

	// Receipt numbers come out gap-free from one.
	require.Equal(t, committed, svc.Ledger.Count())
	for n := 1; n <= committed; n++ {
		receipt, err := svc.Ledger.ByNumber(n)
		require.NoError(t, err)
		require.Equal(t, n, receipt.Number)
	}
}
