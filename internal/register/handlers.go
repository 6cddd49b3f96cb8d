package register

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/events"
)

// Handler exposes register endpoints.
type Handler struct {
	Bank     *Bank
	Validate *validator.Validate
	Events   *events.Bus
}

type assignRequest struct {
	CashierID int `json:"cashierId" validate:"gte=0"`
}

// List handles GET /api/v1/registers.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Bank.List()})
}

// Get handles GET /api/v1/registers/{number}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	number, ok := h.registerNumber(w, r)
	if !ok {
		return
	}
	reg, err := h.Bank.Get(number)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": reg})
}

// Assign handles PUT /api/v1/registers/{number}/cashier.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	number, ok := h.registerNumber(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.Invalid("body", "invalid JSON payload", err))
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(&req); err != nil {
			common.WriteError(w, common.Invalid("body", err.Error(), err))
			return
		}
	}
	reg, err := h.Bank.Assign(number, req.CashierID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicRegisterAssigned, fmt.Sprintf("register/%d", number), reg)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": reg})
}

// DailyTotal handles GET /api/v1/registers/{number}/daily-total?date=YYYY-MM-DD.
func (h *Handler) DailyTotal(w http.ResponseWriter, r *http.Request) {
	number, ok := h.registerNumber(w, r)
	if !ok {
		return
	}
	day, present, err := common.DateParam(r, "date")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if !present {
		day = time.Now().UTC()
	}
	total, err := h.Bank.DailyTotal(number, day)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"register": number,
		"date":     day.Format("2006-01-02"),
		"total":    total,
	}})
}

func (h *Handler) registerNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		common.WriteError(w, common.Invalid("number", "register number must be a positive integer", err))
		return 0, false
	}
	return number, true
}
