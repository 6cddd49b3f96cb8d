// Package sales implements the sale transaction lifecycle: an open basket of
// requested lines, an all-or-nothing completion against the catalog, and the
// append-only receipt ledger committed sales land in.
package sales

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/common"
)

// Status is the lifecycle state of a sale transaction.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCommitted Status = "COMMITTED"
	StatusRejected  Status = "REJECTED"
)

// ErrSaleFinalized is returned for any mutation of a committed or rejected sale.
var ErrSaleFinalized = errors.New("sale already finalized")

// Sale is an in-progress transaction. Lines keep basket insertion order;
// adding an existing product accumulates onto its line instead of appending.
type Sale struct {
	ID             int            `json:"id"`
	CashierID      int            `json:"cashierId"`
	RegisterNumber int            `json:"registerNumber"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	Lines          []catalog.Line `json:"lines"`

	index map[int]int
}

func newSale(id, cashierID, registerNumber int, at time.Time) *Sale {
	return &Sale{
		ID:             id,
		CashierID:      cashierID,
		RegisterNumber: registerNumber,
		Status:         StatusOpen,
		CreatedAt:      at,
		index:          make(map[int]int),
	}
}

func (s *Sale) finalized() bool {
	return s.Status != StatusOpen
}

func (s *Sale) guardOpen() error {
	if s.finalized() {
		return common.NewAppError(
			common.CodeIllegalState,
			fmt.Sprintf("sale %d is %s and can no longer change", s.ID, s.Status),
			http.StatusConflict,
			ErrSaleFinalized,
		)
	}
	return nil
}

func (s *Sale) addItem(productID, quantity int) error {
	if err := s.guardOpen(); err != nil {
		return err
	}
	if quantity < 1 {
		return common.Invalid("quantity", "quantity must be at least 1", nil)
	}
	if pos, ok := s.index[productID]; ok {
		s.Lines[pos].Quantity += quantity
		return nil
	}
	s.index[productID] = len(s.Lines)
	s.Lines = append(s.Lines, catalog.Line{ProductID: productID, Quantity: quantity})
	return nil
}

// updateItem sets the line's quantity outright. A quantity of zero or below
// drops the line.
func (s *Sale) updateItem(productID, quantity int) error {
	if err := s.guardOpen(); err != nil {
		return err
	}
	pos, ok := s.index[productID]
	if !ok {
		return common.NotFound("sale line", fmt.Errorf("product %d not in sale %d", productID, s.ID))
	}
	if quantity <= 0 {
		s.dropLine(pos)
		return nil
	}
	s.Lines[pos].Quantity = quantity
	return nil
}

func (s *Sale) removeItem(productID int) error {
	if err := s.guardOpen(); err != nil {
		return err
	}
	pos, ok := s.index[productID]
	if !ok {
		return common.NotFound("sale line", fmt.Errorf("product %d not in sale %d", productID, s.ID))
	}
	s.dropLine(pos)
	return nil
}

func (s *Sale) dropLine(pos int) {
	removed := s.Lines[pos].ProductID
	s.Lines = append(s.Lines[:pos], s.Lines[pos+1:]...)
	delete(s.index, removed)
	for id, p := range s.index {
		if p > pos {
			s.index[id] = p - 1
		}
	}
}

func (s *Sale) view() Sale {
	out := *s
	out.Lines = append([]catalog.Line(nil), s.Lines...)
	out.index = nil
	return out
}
