package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdom "github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/internal/platform/httpx"
	"github.com/rvashisth/storefront-coordinator/internal/returns/application"
	"github.com/rvashisth/storefront-coordinator/internal/returns/domain"
)

// Handler exposes the return/refund operations. Approve, reject, process and
// refund are staff actions mounted behind the admin gateway.
type Handler struct {
	log      *slog.Logger
	service  *application.Service
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		tracer:   otel.Tracer("returns-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/orders/{orderID}/returns", h.createReturn)
	r.Get("/orders/{orderID}/returns", h.listReturns)
	r.Get("/returns/{returnID}", h.getReturn)
	r.Post("/returns/{returnID}/approve", h.approve)
	r.Post("/returns/{returnID}/reject", h.reject)
	r.Post("/returns/{returnID}/process", h.process)
	r.Post("/returns/{returnID}/refund", h.refund)
}

type createReturnReq struct {
	LineItemID     string   `json:"line_item_id" validate:"required"`
	Reason         string   `json:"reason" validate:"required"`
	ReasonDetails  string   `json:"reason_details"`
	Quantity       int      `json:"quantity" validate:"required,gt=0"`
	EvidenceImages []string `json:"evidence_images"`
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateReturn")
	defer span.End()

	var req createReturnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, &orderdom.ValidationError{Field: "body", Msg: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, h.log, &orderdom.ValidationError{Field: "body", Msg: "line_item_id, reason and a positive quantity are required"})
		return
	}

	ret, err := h.service.CreateReturn(ctx, domain.ReturnDraft{
		OrderID:        chi.URLParam(r, "orderID"),
		LineItemID:     req.LineItemID,
		CustomerID:     r.Header.Get("X-Customer-ID"),
		Reason:         domain.Reason(req.Reason),
		ReasonDetails:  req.ReasonDetails,
		Quantity:       req.Quantity,
		EvidenceImages: req.EvidenceImages,
	})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) listReturns(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListReturns")
	defer span.End()

	rets, err := h.service.ListByOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"returns": rets})
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetReturn")
	defer span.End()

	ret, err := h.service.GetReturn(ctx, chi.URLParam(r, "returnID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

type approveReq struct {
	Notes string `json:"notes"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApproveReturn")
	defer span.End()

	var req approveReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	ret, err := h.service.Approve(ctx, chi.URLParam(r, "returnID"), req.Notes)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required"`
	Notes  string `json:"notes"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RejectReturn")
	defer span.End()

	var req rejectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, &orderdom.ValidationError{Field: "body", Msg: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, h.log, &orderdom.ValidationError{Field: "reason", Msg: "required"})
		return
	}

	ret, err := h.service.Reject(ctx, chi.URLParam(r, "returnID"), req.Reason, req.Notes)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProcessReturn")
	defer span.End()

	ret, err := h.service.StartProcessing(ctx, chi.URLParam(r, "returnID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CompleteRefund")
	defer span.End()

	ret, err := h.service.CompleteRefund(ctx, chi.URLParam(r, "returnID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}
