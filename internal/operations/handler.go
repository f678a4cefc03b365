package operations

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

// Handler wires the four document route groups.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the operations handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers one identical route set per document type, mounted
// under /receipts, /deliveries, /transfers and /adjustments.
func (h *Handler) MountRoutes(r chi.Router) {
	mounts := []struct {
		path    string
		docType DocumentType
	}{
		{"/receipts", TypeReceipt},
		{"/deliveries", TypeDelivery},
		{"/transfers", TypeTransfer},
		{"/adjustments", TypeAdjustment},
	}
	for _, m := range mounts {
		docType := m.docType
		r.Route(m.path, func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.rbac.Require(rbac.ResourceOperations, rbac.ActionRead))
				r.Get("/", h.list(docType))
				r.Get("/{id}", h.show(docType))
			})
			r.With(h.rbac.Require(rbac.ResourceOperations, rbac.ActionWrite)).
				Post("/", h.create(docType))
			r.With(h.rbac.Require(rbac.ResourceOperations, rbac.ActionUpdate)).
				Put("/{id}", h.update(docType))
			r.With(h.rbac.Require(rbac.ResourceOperations, rbac.ActionDelete)).
				Delete("/{id}", h.delete(docType))
			r.With(h.rbac.Require(rbac.ResourceOperations, rbac.ActionExecute)).
				Post("/{id}/validate", h.validate(docType))
		})
	}
}

type lineRequest struct {
	ProductID       int64           `json:"product_key" validate:"required,gt=0"`
	Quantity        decimal.Decimal `json:"quantity"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

type documentRequest struct {
	PartnerName   string        `json:"partner_name"`
	SupplierName  string        `json:"supplier_name"`
	CustomerName  string        `json:"customer_name"`
	SourceID      *int64        `json:"source_location_key"`
	DestinationID *int64        `json:"destination_location_key"`
	LocationID    *int64        `json:"location_key"`
	Date          *time.Time    `json:"date"`
	Notes         string        `json:"notes"`
	Lines         []lineRequest `json:"lines" validate:"dive"`
}

func (req documentRequest) toInput() CreateInput {
	partner := req.PartnerName
	if partner == "" {
		partner = req.SupplierName
	}
	if partner == "" {
		partner = req.CustomerName
	}
	input := CreateInput{
		PartnerName:   partner,
		SourceID:      req.SourceID,
		DestinationID: req.DestinationID,
		LocationID:    req.LocationID,
		Notes:         req.Notes,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	if req.Lines != nil {
		input.Lines = make([]LineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, LineInput{
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				CountedQuantity: line.CountedQuantity,
			})
		}
	}
	return input
}

func documentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) list(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		docs, err := h.service.List(r.Context(), docType, limit)
		if err != nil {
			h.logger.Error("list documents failed", slog.String("type", string(docType)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, docs, "")
	}
}

func (h *Handler) show(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := documentID(r)
		if !ok {
			httpx.Fail(w, http.StatusBadRequest, "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), docType, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, doc, "")
	}
}

func (h *Handler) create(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		var req documentRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Create(r.Context(), docType, req.toInput(), identity.UserID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Info("document created",
			slog.String("type", string(docType)),
			slog.String("number", doc.Number),
			slog.Int64("actor_id", identity.UserID))
		httpx.OK(w, http.StatusCreated, doc, titleFor(docType)+" created successfully")
	}
}

func (h *Handler) update(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		id, okID := documentID(r)
		if !okID {
			httpx.Fail(w, http.StatusBadRequest, "invalid document id")
			return
		}
		var req documentRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Update(r.Context(), docType, id, req.toInput(), identity.UserID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, doc, titleFor(docType)+" updated successfully")
	}
}

func (h *Handler) delete(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		id, okID := documentID(r)
		if !okID {
			httpx.Fail(w, http.StatusBadRequest, "invalid document id")
			return
		}
		if err := h.service.Delete(r.Context(), docType, id, identity.UserID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, http.StatusOK, nil, titleFor(docType)+" deleted successfully")
	}
}

func (h *Handler) validate(docType DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		id, okID := documentID(r)
		if !okID {
			httpx.Fail(w, http.StatusBadRequest, "invalid document id")
			return
		}
		doc, err := h.service.Validate(r.Context(), docType, id, identity.UserID)
		if err != nil {
			h.logger.Warn("document validation failed",
				slog.String("type", string(docType)),
				slog.Int64("document_id", id),
				slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		h.logger.Info("document validated",
			slog.String("type", string(docType)),
			slog.String("number", doc.Number),
			slog.Int64("validator_id", identity.UserID))
		httpx.OK(w, http.StatusOK, doc, titleFor(docType)+" validated successfully")
	}
}

func titleFor(docType DocumentType) string {
	switch docType {
	case TypeReceipt:
		return "Receipt"
	case TypeDelivery:
		return "Delivery"
	case TypeTransfer:
		return "Transfer"
	case TypeAdjustment:
		return "Adjustment"
	}
	return "Document"
}
