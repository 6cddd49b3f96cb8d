package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/employee"
	"github.com/minimarket/pos-api/internal/events"
	"github.com/minimarket/pos-api/internal/obs"
	"github.com/minimarket/pos-api/internal/register"
)

// Service owns the open sales and drives completion. Its mutex covers both
// the validate-and-decrement call into the catalog and the ledger append, so
// receipt numbers are issued in commit order with no interleaving.
type Service struct {
	Catalog   *catalog.Catalog
	Ledger    *Ledger
	Registers *register.Bank
	Employees *employee.Service
	Events    *events.Bus
	Log       zerolog.Logger
	Now       func() time.Time

	mu     sync.Mutex
	sales  map[int]*Sale
	nextID int
}

// NewService constructs a sales service over the given collaborators.
// Registers, Employees, and Events may be left nil in tests.
func NewService(cat *catalog.Catalog, ledger *Ledger) *Service {
	return &Service{
		Catalog: cat,
		Ledger:  ledger,
		Log:     zerolog.Nop(),
		Now:     time.Now,
		sales:   make(map[int]*Sale),
		nextID:  1,
	}
}

// CreateSale opens a new sale for a cashier at a register.
func (s *Service) CreateSale(cashierID, registerNumber int) (Sale, error) {
	if s.Employees != nil {
		emp, err := s.Employees.Get(cashierID)
		if err != nil {
			return Sale{}, err
		}
		if emp.Position != employee.Cashier {
			return Sale{}, common.Invalid("cashierId", fmt.Sprintf("employee %d is not a cashier", cashierID), nil)
		}
	} else if cashierID < 1 {
		return Sale{}, common.Invalid("cashierId", "cashier id must be a positive integer", nil)
	}
	if s.Registers != nil {
		if _, err := s.Registers.Get(registerNumber); err != nil {
			return Sale{}, err
		}
	} else if registerNumber < 1 {
		return Sale{}, common.Invalid("registerNumber", "register number must be a positive integer", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sale := newSale(s.nextID, cashierID, registerNumber, s.Now().UTC())
	s.nextID++
	s.sales[sale.ID] = sale
	return sale.view(), nil
}

// Get returns a snapshot of the sale.
func (s *Service) Get(saleID int) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := s.find(saleID)
	if err != nil {
		return Sale{}, err
	}
	return sale.view(), nil
}

// List returns snapshots of every sale ordered by id.
func (s *Service) List() []Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sale, 0, len(s.sales))
	for id := 1; id < s.nextID; id++ {
		if sale, ok := s.sales[id]; ok {
			out = append(out, sale.view())
		}
	}
	return out
}

// AddItem appends a line to an open sale, accumulating quantity when the
// product is already in the basket. The product must exist at insertion time;
// stock and freshness are only judged at completion.
func (s *Service) AddItem(saleID, productID, quantity int) (Sale, error) {
	if _, err := s.Catalog.Get(productID); err != nil {
		if appErr := catalog.AsAppError(err); appErr != nil {
			return Sale{}, appErr
		}
		return Sale{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := s.find(saleID)
	if err != nil {
		return Sale{}, err
	}
	if err := sale.addItem(productID, quantity); err != nil {
		return Sale{}, err
	}
	return sale.view(), nil
}

// UpdateItem sets a line's quantity. Zero or below removes the line.
func (s *Service) UpdateItem(saleID, productID, quantity int) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := s.find(saleID)
	if err != nil {
		return Sale{}, err
	}
	if err := sale.updateItem(productID, quantity); err != nil {
		return Sale{}, err
	}
	return sale.view(), nil
}

// RemoveItem drops a line from an open sale.
func (s *Service) RemoveItem(saleID, productID int) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, err := s.find(saleID)
	if err != nil {
		return Sale{}, err
	}
	if err := sale.removeItem(productID); err != nil {
		return Sale{}, err
	}
	return sale.view(), nil
}

// Complete settles the sale: every line is validated against current stock
// and freshness, priced, and decremented as one atomic step, and the receipt
// is appended to the ledger. On any violation nothing is decremented, no
// receipt number is consumed, and the sale is marked rejected.
func (s *Service) Complete(ctx context.Context, saleID int, method PaymentMethod) (Receipt, error) {
	if !method.Valid() {
		return Receipt{}, common.Invalid("paymentMethod", "payment method must be CASH or CARD", nil)
	}

	s.mu.Lock()
	sale, err := s.find(saleID)
	if err != nil {
		s.mu.Unlock()
		return Receipt{}, err
	}
	if err := sale.guardOpen(); err != nil {
		s.mu.Unlock()
		return Receipt{}, err
	}
	if len(sale.Lines) == 0 {
		s.mu.Unlock()
		return Receipt{}, common.Invalid("lines", "cannot complete a sale with an empty basket", nil)
	}

	now := s.Now().UTC()
	committed, err := s.Catalog.ReserveAndCommit(sale.Lines, now)
	if err != nil {
		sale.Status = StatusRejected
		s.mu.Unlock()
		s.rejected(saleID, err)
		if appErr := catalog.AsAppError(err); appErr != nil {
			return Receipt{}, appErr
		}
		return Receipt{}, err
	}

	cashierName := ""
	if s.Employees != nil {
		if emp, empErr := s.Employees.Get(sale.CashierID); empErr == nil {
			cashierName = emp.Name
		}
	}
	receipt := s.Ledger.Append(Receipt{
		SaleID:         sale.ID,
		CashierID:      sale.CashierID,
		CashierName:    cashierName,
		RegisterNumber: sale.RegisterNumber,
		IssuedAt:       now,
		Lines:          committed,
		Total:          receiptTotal(committed),
		PaymentMethod:  method,
	})
	sale.Status = StatusCommitted
	s.mu.Unlock()

	s.committed(ctx, receipt)
	return receipt, nil
}

func (s *Service) find(saleID int) (*Sale, error) {
	sale, ok := s.sales[saleID]
	if !ok {
		return nil, common.NotFound("sale", fmt.Errorf("sale %d", saleID))
	}
	return sale, nil
}

func (s *Service) committed(ctx context.Context, r Receipt) {
	s.Log.Info().
		Int("receipt", r.Number).
		Int("sale", r.SaleID).
		Int("cashier", r.CashierID).
		Int("register", r.RegisterNumber).
		Float64("total", r.Total).
		Str("payment", string(r.PaymentMethod)).
		Msg("sale committed")

	if s.Registers != nil {
		if err := s.Registers.RecordSale(r.RegisterNumber, r.Total, r.IssuedAt); err != nil {
			s.Log.Warn().Err(err).Int("register", r.RegisterNumber).Msg("record sale on register")
		}
	}
	if s.Events != nil {
		payload := map[string]any{
			"receiptNumber": r.Number,
			"saleId":        r.SaleID,
			"cashierId":     r.CashierID,
			"total":         r.Total,
			"paymentMethod": r.PaymentMethod,
		}
		if _, err := s.Events.Emit(ctx, events.TopicSaleCompleted, fmt.Sprintf("sale/%d", r.SaleID), payload); err != nil {
			s.Log.Warn().Err(err).Msg("emit sale.completed")
		}
	}
	if obs.SalesCommittedTotal != nil {
		obs.SalesCommittedTotal.Inc()
	}
	if obs.ReceiptAmount != nil {
		obs.ReceiptAmount.Observe(r.Total)
	}
	if obs.ReceiptLines != nil {
		obs.ReceiptLines.Observe(float64(len(r.Lines)))
	}
}

func (s *Service) rejected(saleID int, cause error) {
	s.Log.Info().Err(cause).Int("sale", saleID).Msg("sale rejected")
	if obs.SalesRejectedTotal != nil {
		obs.SalesRejectedTotal.WithLabelValues(rejectionReason(cause)).Inc()
	}
}

func rejectionReason(err error) string {
	var expired *catalog.ExpiredProductError
	var short *catalog.InsufficientQuantityError
	switch {
	case errors.As(err, &expired):
		return "expired_product"
	case errors.As(err, &short):
		return "insufficient_quantity"
	case errors.Is(err, catalog.ErrNotFound):
		return "product_not_found"
	default:
		return "other"
	}
}
