package reports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/employee"
	"github.com/minimarket/pos-api/internal/pricing"
	"github.com/minimarket/pos-api/internal/sales"
)

var testNow = time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)

func testFixture(t *testing.T) *Service {
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
	cat.Add(catalog.AddInput{Name: "Milk", Category: pricing.Food, PurchasePrice: 10, Expiration: testNow.AddDate(0, 0, 3), Quantity: 2})
	cat.Add(catalog.AddInput{Name: "Soap", Category: pricing.NonFood, PurchasePrice: 8, Expiration: testNow.AddDate(1, 0, 0), Quantity: 40})

	staff := employee.NewService()
	staff.Hire(employee.HireInput{Name: "Anna", Position: employee.Cashier, MonthlySalary: 1200})
	staff.Hire(employee.HireInput{Name: "Boris", Position: employee.Manager, MonthlySalary: 2000})

	ledger := sales.NewLedger()
	day := func(d int) time.Time { return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC) }
	ledger.Append(sales.Receipt{
		CashierID: 1, CashierName: "Anna", IssuedAt: day(27), PaymentMethod: sales.PayCash,
		Lines: []catalog.CommittedLine{{ProductID: 1, Name: "Milk", Category: pricing.Food, Quantity: 2, UnitPrice: 12}},
		Total: 24,
	})
	ledger.Append(sales.Receipt{
		CashierID: 1, CashierName: "Anna", IssuedAt: day(28), PaymentMethod: sales.PayCard,
		Lines: []catalog.CommittedLine{{ProductID: 2, Name: "Soap", Category: pricing.NonFood, Quantity: 1, UnitPrice: 10}},
		Total: 10,
	})
	ledger.Append(sales.Receipt{
		CashierID: 2, CashierName: "Chloe", IssuedAt: day(28), PaymentMethod: sales.PayCash,
		Lines: []catalog.CommittedLine{{ProductID: 1, Name: "Milk", Category: pricing.Food, Quantity: 1, UnitPrice: 12}},
		Total: 12,
	})

	return &Service{
		Catalog:           cat,
		Ledger:            ledger,
		Employees:         staff,
		ExpiryWarningDays: 7,
		LowStockThreshold: 5,
		Now:               func() time.Time { return testNow },
	}
}

func TestSalesReportAggregation(t *testing.T) {
	svc := testFixture(t)
	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	report, err := svc.Sales(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 3, report.ReceiptCount)
	require.InDelta(t, 46.0, report.TotalRevenue, 1e-9)

	require.Len(t, report.ByCashier, 2)
	require.Equal(t, 1, report.ByCashier[0].CashierID)
	require.Equal(t, 2, report.ByCashier[0].Receipts)
	require.InDelta(t, 34.0, report.ByCashier[0].Total, 1e-9)

	// Products sort by revenue, milk first.
	require.Len(t, report.ByProduct, 2)
	require.Equal(t, "Milk", report.ByProduct[0].Name)
	require.Equal(t, 3, report.ByProduct[0].Quantity)
	require.InDelta(t, 36.0, report.ByProduct[0].Total, 1e-9)

	require.Len(t, report.ByDay, 2)
	require.Equal(t, "2026-08-27", report.ByDay[0].Date)
	require.InDelta(t, 22.0, report.ByDay[1].Total, 1e-9)
}

func TestSalesReportRejectsInvertedRange(t *testing.T) {
	svc := testFixture(t)
	from := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	_, err := svc.Sales(context.Background(), from, from.AddDate(0, 0, -1))
	require.Error(t, err)
	_, err = svc.Financial(context.Background(), from, from.AddDate(0, 0, -1))
	require.Error(t, err)
}

func TestFinancialReport(t *testing.T) {
	svc := testFixture(t)
	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	report, err := svc.Financial(context.Background(), from, to)
	require.NoError(t, err)
	require.InDelta(t, 46.0, report.Income, 1e-9)
	require.InDelta(t, 3200.0, report.SalaryExpense, 1e-9)
	require.InDelta(t, 10*2+8*40.0, report.InventoryValue, 1e-9)
	require.InDelta(t, 46.0-3200.0, report.Profit, 1e-9)
}

func TestInventoryReport(t *testing.T) {
	svc := testFixture(t)

	report, err := svc.Inventory(context.Background(), testNow)
	require.NoError(t, err)
	require.Equal(t, 2, report.ProductCount)
	require.Empty(t, report.Expired)
	require.Len(t, report.ExpiringSoon, 1)
	require.Equal(t, "Milk", report.ExpiringSoon[0].Name)
	require.Len(t, report.LowStock, 1)
	require.Equal(t, "Milk", report.LowStock[0].Name)

	later, err := svc.Inventory(context.Background(), testNow.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, later.Expired, 1)
}

func TestReportCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	svc := testFixture(t)
	svc.R = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc.TTL = time.Minute

	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := svc.Sales(ctx, from, to)
	require.NoError(t, err)

	// New receipts do not show while the cached report is fresh.
	svc.Ledger.Append(sales.Receipt{CashierID: 1, IssuedAt: to, Total: 100})
	cached, err := svc.Sales(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, first.ReceiptCount, cached.ReceiptCount)
	require.InDelta(t, first.TotalRevenue, cached.TotalRevenue, 1e-9)

	mr.FastForward(2 * time.Minute)
	fresh, err := svc.Sales(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, first.ReceiptCount+1, fresh.ReceiptCount)
}

func TestFilePersistence(t *testing.T) {
	svc := testFixture(t)
	dir := t.TempDir()
	svc.Files = &FileSink{Dir: dir}

	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	_, err := svc.Sales(context.Background(), from, from.AddDate(0, 0, 1))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "sales-"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "SALES REPORT")
	require.Contains(t, string(data), "Anna")
}
