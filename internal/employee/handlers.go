package employee

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/minimarket/pos-api/internal/common"
)

// Handler exposes staff roster endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type hireRequest struct {
	Name          string  `json:"name" validate:"required"`
	Position      string  `json:"position" validate:"required,oneof=CASHIER MANAGER"`
	MonthlySalary float64 `json:"monthlySalary" validate:"gte=0"`
}

type setSalaryRequest struct {
	MonthlySalary float64 `json:"monthlySalary" validate:"gte=0"`
}

// Hire handles POST /api/v1/employees.
func (h *Handler) Hire(w http.ResponseWriter, r *http.Request) {
	var req hireRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.Hire(HireInput{
		Name:          req.Name,
		Position:      Position(req.Position),
		MonthlySalary: req.MonthlySalary,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": emp})
}

// List handles GET /api/v1/employees with an optional position filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var position Position
	if v := strings.TrimSpace(r.URL.Query().Get("position")); v != "" {
		position = Position(strings.ToUpper(v))
		if !position.Valid() {
			common.WriteError(w, common.Invalid("position", "position must be CASHIER or MANAGER", nil))
			return
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Service.List(position)})
}

// Get handles GET /api/v1/employees/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": emp})
}

// Terminate handles DELETE /api/v1/employees/{id}.
func (h *Handler) Terminate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Terminate(id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSalary handles PATCH /api/v1/employees/{id}/salary.
func (h *Handler) SetSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var req setSalaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.SetSalary(id, req.MonthlySalary)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": emp})
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

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		common.WriteError(w, common.Invalid("id", "employee id must be a positive integer", err))
		return 0, false
	}
	return id, true
}
