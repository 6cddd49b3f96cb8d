// Package reports aggregates receipts, staff, and stock into sales,
// financial, and inventory reports. Generated reports are cached in Redis and
// optionally rendered to text files in the reports directory.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/employee"
	"github.com/minimarket/pos-api/internal/events"
	"github.com/minimarket/pos-api/internal/obs"
	"github.com/minimarket/pos-api/internal/pricing"
	"github.com/minimarket/pos-api/internal/sales"
)

// CashierTotal is one cashier's share of a sales report.
type CashierTotal struct {
	CashierID   int     `json:"cashierId"`
	CashierName string  `json:"cashierName,omitempty"`
	Receipts    int     `json:"receipts"`
	Total       float64 `json:"total"`
}

// ProductTotal is one product's share of a sales report.
type ProductTotal struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// DayTotal is one calendar day's share of a sales report.
type DayTotal struct {
	Date     string  `json:"date"`
	Receipts int     `json:"receipts"`
	Total    float64 `json:"total"`
}

// SalesReport summarizes committed receipts over an inclusive day range.
type SalesReport struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	ReceiptCount int            `json:"receiptCount"`
	TotalRevenue float64        `json:"totalRevenue"`
	ByCashier    []CashierTotal `json:"byCashier"`
	ByProduct    []ProductTotal `json:"byProduct"`
	ByDay        []DayTotal     `json:"byDay"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

// FinancialReport sets receipt income for a period against the store's
// standing expenses. Salaries count as the period's expense; the inventory
// value is the purchase cost of stock currently on hand.
type FinancialReport struct {
	From           string    `json:"from"`
	To             string    `json:"to"`
	Income         float64   `json:"income"`
	SalaryExpense  float64   `json:"salaryExpense"`
	InventoryValue float64   `json:"inventoryValue"`
	Profit         float64   `json:"profit"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// InventoryReport counts trouble stock as of a reference day.
type InventoryReport struct {
	AsOf           string            `json:"asOf"`
	ProductCount   int               `json:"productCount"`
	InventoryValue float64           `json:"inventoryValue"`
	Expired        []catalog.Product `json:"expired"`
	ExpiringSoon   []catalog.Product `json:"expiringSoon"`
	LowStock       []catalog.Product `json:"lowStock"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}

// Service builds reports from the live collaborators. R and TTL enable the
// Redis cache; Files enables text persistence. Both are optional.
type Service struct {
	Catalog   *catalog.Catalog
	Ledger    *sales.Ledger
	Employees *employee.Service
	R         *redis.Client
	TTL       time.Duration
	Files     *FileSink
	Events    *events.Bus
	Log       zerolog.Logger

	ExpiryWarningDays int
	LowStockThreshold int
	Now               func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+1)
	formatted = append(formatted, "rpt")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func dayString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func validateRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && pricing.DaysBetween(from, to) < 0 {
		return common.Invalid("to", "to must not be before from", nil)
	}
	return nil
}

// Sales builds the sales report for the inclusive day range.
func (s *Service) Sales(ctx context.Context, from, to time.Time) (SalesReport, error) {
	if err := validateRange(from, to); err != nil {
		return SalesReport{}, err
	}
	key := cacheKey("sales", dayString(from), dayString(to))
	if cached, ok := getCached[SalesReport](ctx, s, key); ok {
		return cached, nil
	}

	receipts := s.Ledger.Range(from, to)
	report := SalesReport{
		From:         dayString(from),
		To:           dayString(to),
		ReceiptCount: len(receipts),
		GeneratedAt:  s.now(),
	}
	byCashier := make(map[int]*CashierTotal)
	byProduct := make(map[int]*ProductTotal)
	byDay := make(map[string]*DayTotal)
	for _, r := range receipts {
		report.TotalRevenue += r.Total

		ct, ok := byCashier[r.CashierID]
		if !ok {
			ct = &CashierTotal{CashierID: r.CashierID, CashierName: r.CashierName}
			byCashier[r.CashierID] = ct
		}
		ct.Receipts++
		ct.Total += r.Total

		day := dayString(r.IssuedAt)
		dt, ok := byDay[day]
		if !ok {
			dt = &DayTotal{Date: day}
			byDay[day] = dt
		}
		dt.Receipts++
		dt.Total += r.Total

		for _, ln := range r.Lines {
			pt, ok := byProduct[ln.ProductID]
			if !ok {
				pt = &ProductTotal{ProductID: ln.ProductID, Name: ln.Name}
				byProduct[ln.ProductID] = pt
			}
			pt.Quantity += ln.Quantity
			pt.Total += ln.Subtotal()
		}
	}
	for _, ct := range byCashier {
		report.ByCashier = append(report.ByCashier, *ct)
	}
	sort.Slice(report.ByCashier, func(i, j int) bool { return report.ByCashier[i].CashierID < report.ByCashier[j].CashierID })
	for _, pt := range byProduct {
		report.ByProduct = append(report.ByProduct, *pt)
	}
	sort.Slice(report.ByProduct, func(i, j int) bool { return report.ByProduct[i].Total > report.ByProduct[j].Total })
	for _, dt := range byDay {
		report.ByDay = append(report.ByDay, *dt)
	}
	sort.Slice(report.ByDay, func(i, j int) bool { return report.ByDay[i].Date < report.ByDay[j].Date })

	s.store(ctx, key, report)
	s.persist("sales", renderSales(report))
	s.generated(ctx, "sales")
	return report, nil
}

// Financial builds the financial report for the inclusive day range.
func (s *Service) Financial(ctx context.Context, from, to time.Time) (FinancialReport, error) {
	if err := validateRange(from, to); err != nil {
		return FinancialReport{}, err
	}
	key := cacheKey("financial", dayString(from), dayString(to))
	if cached, ok := getCached[FinancialReport](ctx, s, key); ok {
		return cached, nil
	}

	report := FinancialReport{
		From:           dayString(from),
		To:             dayString(to),
		Income:         s.Ledger.SumRange(from, to),
		InventoryValue: s.Catalog.InventoryValue(),
		GeneratedAt:    s.now(),
	}
	if s.Employees != nil {
		report.SalaryExpense = s.Employees.TotalSalaries()
	}
	report.Profit = report.Income - report.SalaryExpense

	s.store(ctx, key, report)
	s.persist("financial", renderFinancial(report))
	s.generated(ctx, "financial")
	return report, nil
}

// Inventory builds the inventory health report as of the given day.
func (s *Service) Inventory(ctx context.Context, asOf time.Time) (InventoryReport, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	key := cacheKey("inventory", dayString(asOf))
	if cached, ok := getCached[InventoryReport](ctx, s, key); ok {
		return cached, nil
	}

	warning := s.ExpiryWarningDays
	if warning <= 0 {
		warning = 7
	}
	threshold := s.LowStockThreshold
	if threshold <= 0 {
		threshold = 5
	}
	report := InventoryReport{
		AsOf:           dayString(asOf),
		ProductCount:   s.Catalog.Count(),
		InventoryValue: s.Catalog.InventoryValue(),
		Expired:        s.Catalog.List(catalog.Filter{ExpiredOnly: true, AsOf: asOf}),
		ExpiringSoon:   s.Catalog.List(catalog.Filter{ExpiringWithinDays: &warning, AsOf: asOf}),
		LowStock:       s.Catalog.List(catalog.Filter{BelowQuantity: &threshold, AsOf: asOf}),
		GeneratedAt:    s.now(),
	}

	s.store(ctx, key, report)
	s.persist("inventory", renderInventory(report))
	s.generated(ctx, "inventory")
	return report, nil
}

func getCached[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var out T
	if s.R == nil || s.TTL <= 0 {
		return out, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.R.Set(ctx, key, data, s.TTL).Err(); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("cache report")
	}
}

func (s *Service) persist(kind, rendered string) {
	if s.Files == nil {
		return
	}
	if _, err := s.Files.Write(kind, s.now(), rendered); err != nil {
		s.Log.Warn().Err(err).Str("kind", kind).Msg("persist report file")
	}
}

func (s *Service) generated(ctx context.Context, kind string) {
	if obs.ReportsGeneratedTotal != nil {
		obs.ReportsGeneratedTotal.WithLabelValues(kind).Inc()
	}
	if s.Events != nil {
		payload := map[string]any{"kind": kind, "generatedAt": s.now()}
		if _, err := s.Events.Emit(ctx, events.TopicReportGenerated, "report/"+kind, payload); err != nil {
			s.Log.Warn().Err(err).Str("kind", kind).Msg("emit report.generated")
		}
	}
}
