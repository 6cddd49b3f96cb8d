package sales

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/minimarket/pos-api/internal/common"
)

// Handler exposes sale and receipt endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type createSaleRequest struct {
	CashierID      int `json:"cashierId" validate:"required,gte=1"`
	RegisterNumber int `json:"registerNumber" validate:"required,gte=1"`
}

type addItemRequest struct {
	ProductID int `json:"productId" validate:"required,gte=1"`
	Quantity  int `json:"quantity" validate:"required,gte=1"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type completeRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=CASH CARD"`
}

// Create handles POST /api/v1/sales.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.Service.CreateSale(req.CashierID, req.RegisterNumber)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": sale})
}

// List handles GET /api/v1/sales.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Service.List()})
}

// Get handles GET /api/v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.Service.Get(id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sale})
}

// AddItem handles POST /api/v1/sales/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, r, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.Service.AddItem(id, req.ProductID, req.Quantity)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sale})
}

// UpdateItem handles PUT /api/v1/sales/{id}/items/{productId}. A quantity of
// zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, r, "id")
	if !ok {
		return
	}
	productID, ok := h.intParam(w, r, "productId")
	if !ok {
		return
	}
	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.Service.UpdateItem(id, productID, req.Quantity)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sale})
}

// RemoveItem handles DELETE /api/v1/sales/{id}/items/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, r, "id")
	if !ok {
		return
	}
	productID, ok := h.intParam(w, r, "productId")
	if !ok {
		return
	}
	sale, err := h.Service.RemoveItem(id, productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sale})
}

// Complete handles POST /api/v1/sales/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.intParam(w, r, "id")
	if !ok {
		return
	}
	var req completeRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.Service.Complete(r.Context(), id, PaymentMethod(req.PaymentMethod))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": receipt})
}

// Receipts handles GET /api/v1/receipts with optional from/to date filters.
func (h *Handler) Receipts(w http.ResponseWriter, r *http.Request) {
	from, _, err := common.DateParam(r, "from")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	to, _, err := common.DateParam(r, "to")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	receipts := h.Service.Ledger.Range(from, to)
	page, perPage := common.ParsePagination(r, 50)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(receipts)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       common.PageSlice(receipts, page, perPage),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(receipts)},
		"meta":       map[string]any{"count": len(receipts), "total": h.Service.Ledger.SumRange(from, to)},
	})
}

// Receipt handles GET /api/v1/receipts/{number}.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	number, ok := h.intParam(w, r, "number")
	if !ok {
		return
	}
	receipt, err := h.Service.Ledger.ByNumber(number)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": receipt})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.WriteError(w, common.Invalid("body", "invalid JSON payload", err))
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(v); err != nil {
			common.WriteError(w, common.Invalid("body", err.Error(), err))
			return false
		}
	}
	return true
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value < 1 {
		common.WriteError(w, common.Invalid(name, name+" must be a positive integer", err))
		return 0, false
	}
	return value, true
}
