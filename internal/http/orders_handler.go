package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderAdmin is the back-office side of the order pipeline.
type OrderAdmin interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, in service.AdminOrderInput) service.Result
	EditOrder(ctx context.Context, id string, in service.AdminOrderInput) service.Result
	DeleteOrder(ctx context.Context, id string) service.Result
}

type OrdersHandler struct {
	orders OrderAdmin
	logger *slog.Logger
}

func NewOrdersHandler(orders OrderAdmin, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, logger: logger}
}

type OrderResponse struct {
	domain.Order
	Total string `json:"total"`
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{Order: o, Total: o.Total().StringFixed(2)}
}

// GET /api/v1/admin/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}

	resp := OrdersResponse{Orders: make([]OrderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(*order))
}

// POST /api/v1/admin/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.AdminOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusCreated, h.orders.CreateOrder(r.Context(), req))
}

// PUT /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) EditOrder(w http.ResponseWriter, r *http.Request) {
	var req service.AdminOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusOK, h.orders.EditOrder(r.Context(), chi.URLParam(r, "order_id"), req))
}

// DELETE /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	respondResult(w, http.StatusOK, h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "order_id")))
}
