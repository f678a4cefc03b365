package locations

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/platform/httpx"
	"github.com/wareline/wareline/internal/rbac"
	"github.com/wareline/wareline/internal/shared"
)

// Handler wires location endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the location handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers location routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceLocations, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceLocations, rbac.ActionWrite))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceLocations, rbac.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Post("/{id}/deactivate", h.deactivate)
		r.Post("/{id}/activate", h.activate)
	})
}

type locationRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=internal transit customer supplier"`
	WarehouseID *int64 `json:"warehouse_id"`
	ParentID    *int64 `json:"parent_id"`
	Barcode     string `json:"barcode"`
}

func (req locationRequest) toDomain() Location {
	return Location{
		Code:        req.Code,
		Name:        req.Name,
		Type:        req.Type,
		WarehouseID: req.WarehouseID,
		ParentID:    req.ParentID,
		Barcode:     req.Barcode,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := catalogshared.ParseListFilters(r.URL.Query())
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list locations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{
		"locations":  items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, "")
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid location id")
		return
	}
	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, location, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	location, err := h.service.Create(r.Context(), req.toDomain())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("location created", slog.Int64("location_id", location.ID), slog.String("code", location.Code))
	httpx.OK(w, http.StatusCreated, location, "Location created successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid location id")
		return
	}
	var req locationRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, req.toDomain()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, location, "Location updated successfully")
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid location id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "Location and its children deactivated")
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid location id")
		return
	}
	if err := h.service.Activate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "Location activated")
}
