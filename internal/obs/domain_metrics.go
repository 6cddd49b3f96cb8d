package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesCommittedTotal counts successfully completed sale transactions.
	SalesCommittedTotal prometheus.Counter
	// SalesRejectedTotal counts rejected sale transactions by rejection reason.
	SalesRejectedTotal *prometheus.CounterVec
	// ReceiptAmount records the distribution of committed receipt totals.
	ReceiptAmount prometheus.Histogram
	// ReceiptLines records how many line items committed receipts carry.
	ReceiptLines prometheus.Histogram
	// ReportsGeneratedTotal counts generated reports by kind.
	ReportsGeneratedTotal *prometheus.CounterVec
	// CatalogProducts tracks the number of products currently in the catalog.
	CatalogProducts prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesCommittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_committed_total",
			Help:      "Count of sale transactions committed to the receipt ledger.",
		})
		SalesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_rejected_total",
			Help:      "Count of sale transactions rejected during validation.",
		}, []string{"reason"})
		ReceiptAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_amount",
			Help:      "Distribution of receipt total amounts.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		ReceiptLines = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_lines",
			Help:      "Distribution of line item counts per receipt.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		})
		ReportsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Count of generated reports by kind.",
		}, []string{"kind"})
		CatalogProducts = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Number of products currently tracked by the catalog.",
		})

		mustRegisterCollector(reg, SalesCommittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SalesCommittedTotal = v
			}
		})
		mustRegisterCollector(reg, SalesRejectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesRejectedTotal = v
			}
		})
		mustRegisterCollector(reg, ReceiptAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				ReceiptAmount = v
			}
		})
		mustRegisterCollector(reg, ReceiptLines, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				ReceiptLines = v
			}
		})
		mustRegisterCollector(reg, ReportsGeneratedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportsGeneratedTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogProducts, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CatalogProducts = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
