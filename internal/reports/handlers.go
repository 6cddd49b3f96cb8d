package reports

import (
	"net/http"
	"time"

	"github.com/minimarket/pos-api/internal/common"
)

// Handler exposes report endpoints.
type Handler struct {
	Service *Service
}

func (h *Handler) rangeParams(r *http.Request) (from, to time.Time, err error) {
	from, present, err := common.DateParam(r, "from")
	if err != nil {
		return from, to, err
	}
	if !present {
		from = h.Service.now().AddDate(0, 0, -30)
	}
	to, present, err = common.DateParam(r, "to")
	if err != nil {
		return from, to, err
	}
	if !present {
		to = h.Service.now()
	}
	return from, to, nil
}

// Sales handles GET /api/v1/reports/sales?from=&to=.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.rangeParams(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	report, err := h.Service.Sales(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// Financial handles GET /api/v1/reports/financial?from=&to=.
func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.rangeParams(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	report, err := h.Service.Financial(r.Context(), from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// Inventory handles GET /api/v1/reports/inventory?date=.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	asOf, _, err := common.DateParam(r, "date")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	report, err := h.Service.Inventory(r.Context(), asOf)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}
