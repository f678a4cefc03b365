package stock

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wareline/wareline/internal/platform/httpx"
	"github.com/wareline/wareline/internal/rbac"
	"github.com/wareline/wareline/internal/shared"
)

// Handler wires stock endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers stock routes directly under the API root because they
// span the products and operations path prefixes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.ResourceInventory, rbac.ActionRead)).
		Get("/products/{id}/stock", h.breakdown)
	r.With(h.rbac.Require(rbac.ResourceSettings, rbac.ActionWrite)).
		Put("/stock", h.setAbsolute)
	r.With(h.rbac.Require(rbac.ResourceOperations, rbac.ActionRead)).
		Get("/operations/stock-movements", h.movements)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}
	levels, err := h.service.ProductBreakdown(r.Context(), productID)
	if err != nil {
		h.logger.Error("stock breakdown failed", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, levels, "")
}

type setAbsoluteRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	LocationID int64           `json:"location_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity"`
}

func (h *Handler) setAbsolute(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req setAbsoluteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	level, err := h.service.SetAbsolute(r.Context(), identity.UserID, req.ProductID, req.LocationID, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock overridden",
		slog.Int64("product_id", req.ProductID),
		slog.Int64("location_id", req.LocationID),
		slog.String("quantity", req.Quantity.String()),
		slog.Int64("actor_id", identity.UserID))
	httpx.OK(w, http.StatusOK, level, "Stock updated")
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{Type: q.Get("type")}
	if raw := q.Get("product_id"); raw != "" {
		filter.ProductID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := q.Get("location_id"); raw != "" {
		filter.LocationID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	movements, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock movements failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, movements, "")
}
