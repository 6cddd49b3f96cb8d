package reports

import (
	"fmt"
	"strings"
)

// renderSales produces the plain-text form written to the reports directory.
func renderSales(r SalesReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SALES REPORT %s .. %s\n", r.From, r.To)
	fmt.Fprintf(&b, "Receipts: %d\n", r.ReceiptCount)
	fmt.Fprintf(&b, "Total revenue: %.2f\n", r.TotalRevenue)
	if len(r.ByCashier) > 0 {
		b.WriteString("\nBy cashier:\n")
		for _, ct := range r.ByCashier {
			name := ct.CashierName
			if name == "" {
				name = fmt.Sprintf("cashier %d", ct.CashierID)
			}
			fmt.Fprintf(&b, "  %-20s %3d receipts  %10.2f\n", name, ct.Receipts, ct.Total)
		}
	}
	if len(r.ByProduct) > 0 {
		b.WriteString("\nBy product:\n")
		for _, pt := range r.ByProduct {
			fmt.Fprintf(&b, "  %-20s %3d units     %10.2f\n", pt.Name, pt.Quantity, pt.Total)
		}
	}
	if len(r.ByDay) > 0 {
		b.WriteString("\nBy day:\n")
		for _, dt := range r.ByDay {
			fmt.Fprintf(&b, "  %s  %3d receipts  %10.2f\n", dt.Date, dt.Receipts, dt.Total)
		}
	}
	return b.String()
}

func renderFinancial(r FinancialReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FINANCIAL REPORT %s .. %s\n", r.From, r.To)
	fmt.Fprintf(&b, "Income:          %10.2f\n", r.Income)
	fmt.Fprintf(&b, "Salary expense:  %10.2f\n", r.SalaryExpense)
	fmt.Fprintf(&b, "Inventory value: %10.2f\n", r.InventoryValue)
	fmt.Fprintf(&b, "Profit:          %10.2f\n", r.Profit)
	return b.String()
}

func renderInventory(r InventoryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INVENTORY REPORT as of %s\n", r.AsOf)
	fmt.Fprintf(&b, "Products: %d  Value: %.2f\n", r.ProductCount, r.InventoryValue)
	if len(r.Expired) > 0 {
		b.WriteString("\nExpired:\n")
		for _, p := range r.Expired {
			fmt.Fprintf(&b, "  %-20s expired %s\n", p.Name, p.Expiration.Format("2006-01-02"))
		}
	}
	if len(r.ExpiringSoon) > 0 {
		b.WriteString("\nExpiring soon:\n")
		for _, p := range r.ExpiringSoon {
			fmt.Fprintf(&b, "  %-20s expires %s\n", p.Name, p.Expiration.Format("2006-01-02"))
		}
	}
	if len(r.LowStock) > 0 {
		b.WriteString("\nLow stock:\n")
		for _, p := range r.LowStock {
			fmt.Fprintf(&b, "  %-20s %d left\n", p.Name, p.Quantity)
		}
	}
	return b.String()
}
