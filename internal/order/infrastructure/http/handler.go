package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rvashisth/storefront-coordinator/internal/order/application"
	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
	"github.com/rvashisth/storefront-coordinator/internal/platform/httpx"
)

// Handler exposes the cart/order operations. Authentication is upstream; the
// resolved customer arrives in X-Customer-ID and staff endpoints are mounted
// behind the admin gateway.
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
		tracer:   otel.Tracer("order-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/cart/validate", h.validateCart)
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}/cancel", h.cancelOrder)
	r.Post("/orders/{orderID}/status", h.transitionStatus)
}

type validateCartReq struct {
	Lines []domain.CartLine `json:"lines" validate:"required,min=1"`
}

func (h *Handler) validateCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ValidateCartStock")
	defer span.End()

	var req validateCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "body", Msg: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "lines", Msg: "at least one line required"})
		return
	}

	report, err := h.service.ValidateCartStock(ctx, req.Lines)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lines": report})
}

type createOrderReq struct {
	Lines         []domain.CartLine `json:"lines" validate:"required,min=1"`
	ShipTo        domain.Address    `json:"ship_to" validate:"required"`
	Pricing       domain.Pricing    `json:"pricing"`
	PaymentMethod string            `json:"payment_method"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	customerID := r.Header.Get("X-Customer-ID")
	if customerID == "" {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "customer_id", Msg: "required"})
		return
	}

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "body", Msg: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "lines", Msg: "at least one line required"})
		return
	}

	o, err := h.service.CreateOrder(ctx, domain.OrderDraft{
		CustomerID:    customerID,
		Lines:         req.Lines,
		ShipTo:        req.ShipTo,
		Pricing:       req.Pricing,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.service.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	orders, err := h.service.ListOrders(ctx, r.Header.Get("X-Customer-ID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelOrder")
	defer span.End()

	customerID := r.Header.Get("X-Customer-ID")
	if customerID == "" {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "customer_id", Msg: "required"})
		return
	}

	o, err := h.service.CancelOrder(ctx, chi.URLParam(r, "orderID"), customerID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

type transitionReq struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number"`
}

func (h *Handler) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TransitionOrderStatus")
	defer span.End()

	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "body", Msg: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, h.log, &domain.ValidationError{Field: "status", Msg: "required"})
		return
	}

	o, err := h.service.TransitionStatus(ctx, chi.URLParam(r, "orderID"), domain.Status(req.Status), req.TrackingNumber)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
