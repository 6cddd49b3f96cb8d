package sales

import (
	"time"

	"github.com/minimarket/pos-api/internal/catalog"
)

// PaymentMethod is how a completed sale was settled.
type PaymentMethod string

const (
	PayCash PaymentMethod = "CASH"
	PayCard PaymentMethod = "CARD"
)

// Valid reports whether the payment method is supported.
func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard
}

// Receipt is the immutable record of a committed sale. Line snapshots carry
// the name, category, and unit price in force at commit time, so later
// catalog or policy changes never alter a receipt.
type Receipt struct {
	Number         int                     `json:"number"`
	SaleID         int                     `json:"saleId"`
	CashierID      int                     `json:"cashierId"`
	CashierName    string                  `json:"cashierName"`
	RegisterNumber int                     `json:"registerNumber"`
	IssuedAt       time.Time               `json:"issuedAt"`
	Lines          []catalog.CommittedLine `json:"lines"`
	Total          float64                 `json:"total"`
	PaymentMethod  PaymentMethod           `json:"paymentMethod"`
}

func receiptTotal(lines []catalog.CommittedLine) float64 {
	var total float64
	for _, ln := range lines {
		total += ln.Subtotal()
	}
	return total
}
