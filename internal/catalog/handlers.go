package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/events"
	"github.com/minimarket/pos-api/internal/obs"
	"github.com/minimarket/pos-api/internal/pricing"
)

// Handler exposes catalog administration and query endpoints.
type Handler struct {
	Catalog  *Catalog
	Validate *validator.Validate
	Events   *events.Bus
}

type addProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category" validate:"required,oneof=FOOD NON_FOOD"`
	PurchasePrice float64 `json:"purchasePrice" validate:"required,gt=0"`
	Expiration    string  `json:"expiration" validate:"required,datetime=2006-01-02"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
}

type adjustQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type setMarkupRequest struct {
	Category string  `json:"category" validate:"required,oneof=FOOD NON_FOOD"`
	Percent  float64 `json:"percent" validate:"gte=0"`
}

type setDiscountRequest struct {
	WindowDays int     `json:"windowDays" validate:"gte=0"`
	Percent    float64 `json:"percent" validate:"gte=0,lte=100"`
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	expiration, err := time.Parse("2006-01-02", req.Expiration)
	if err != nil {
		common.WriteError(w, common.Invalid("expiration", "expiration must be formatted as YYYY-MM-DD", err))
		return
	}
	product, err := h.Catalog.Add(AddInput{
		Name:          req.Name,
		Category:      pricing.Category(req.Category),
		PurchasePrice: req.PurchasePrice,
		Expiration:    expiration.UTC(),
		Quantity:      req.Quantity,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.trackGauge()
	h.emit(r, events.TopicProductAdded, fmt.Sprintf("product/%d", product.ID), product)
	common.JSON(w, http.StatusCreated, map[string]any{"data": product})
}

// List handles GET /api/v1/products with optional filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		category := pricing.Category(strings.ToUpper(v))
		if !category.Valid() {
			common.WriteError(w, common.Invalid("category", "category must be FOOD or NON_FOOD", nil))
			return
		}
		filter.Category = category
	}
	if v := strings.TrimSpace(r.URL.Query().Get("expired")); v == "true" || v == "1" {
		filter.ExpiredOnly = true
	}
	if v := strings.TrimSpace(r.URL.Query().Get("expiringWithinDays")); v != "" {
		days := common.AtoiDefault(v, -1)
		if days < 0 {
			common.WriteError(w, common.Invalid("expiringWithinDays", "expiringWithinDays must be a non-negative integer", nil))
			return
		}
		filter.ExpiringWithinDays = &days
	}
	if v := strings.TrimSpace(r.URL.Query().Get("belowQuantity")); v != "" {
		threshold := common.AtoiDefault(v, -1)
		if threshold < 0 {
			common.WriteError(w, common.Invalid("belowQuantity", "belowQuantity must be a non-negative integer", nil))
			return
		}
		filter.BelowQuantity = &threshold
	}
	products := h.Catalog.List(filter)
	page, perPage := common.ParsePagination(r, 50)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(products)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       common.PageSlice(products, page, perPage),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(products)},
	})
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	product, err := h.Catalog.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Delete handles DELETE /api/v1/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.Remove(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.trackGauge()
	h.emit(r, events.TopicProductRemoved, fmt.Sprintf("product/%d", id), map[string]any{"productId": id})
	w.WriteHeader(http.StatusNoContent)
}

// AdjustQuantity handles PATCH /api/v1/products/{id}/quantity for restocking.
func (h *Handler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	var req adjustQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.Catalog.AdjustQuantity(id, req.Delta)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Quote handles GET /api/v1/products/{id}/price.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	price, err := h.Catalog.Quote(id, time.Time{})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"productId": id, "unitPrice": price}})
}

// GetPolicy handles GET /api/v1/policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Catalog.Policy()})
}

// SetMarkup handles PUT /api/v1/policy/markup.
func (h *Handler) SetMarkup(w http.ResponseWriter, r *http.Request) {
	var req setMarkupRequest
	if !h.decode(w, r, &req) {
		return
	}
	policy, err := h.Catalog.SetMarkup(pricing.Category(req.Category), req.Percent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r, events.TopicPolicyUpdated, "policy/markup", policy)
	common.JSON(w, http.StatusOK, map[string]any{"data": policy})
}

// SetDiscount handles PUT /api/v1/policy/discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req setDiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	policy, err := h.Catalog.SetDiscount(req.WindowDays, req.Percent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r, events.TopicPolicyUpdated, "policy/discount", policy)
	common.JSON(w, http.StatusOK, map[string]any{"data": policy})
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

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		common.WriteError(w, common.Invalid("id", "product id must be a positive integer", err))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if appErr := AsAppError(err); appErr != nil {
		common.WriteError(w, appErr)
		return
	}
	common.WriteError(w, err)
}

func (h *Handler) emit(r *http.Request, topic, aggregate string, payload any) {
	if h.Events == nil {
		return
	}
	// Emission failures are non-fatal; the mutation already happened.
	_, _ = h.Events.Emit(r.Context(), topic, aggregate, payload)
}

func (h *Handler) trackGauge() {
	if obs.CatalogProducts != nil {
		obs.CatalogProducts.Set(float64(h.Catalog.Count()))
	}
}
