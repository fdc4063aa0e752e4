package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
)

type Checkout interface {
	PlaceOrder(ctx context.Context, in service.CheckoutInput) service.Result
}

type CheckoutHandler struct {
	orders Checkout
	carts  *cart.Manager
	logger *slog.Logger
}

func NewCheckoutHandler(orders Checkout, carts *cart.Manager, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders: orders,
		carts:  carts,
		logger: logger,
	}
}

// POST /api/v1/checkout
//
// When the body carries no items the visitor's session cart is submitted
// instead, and emptied once the order is stored.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CheckoutInput
	if !decodeJSON(w, r, &req) {
		return
	}

	var store *cart.Store
	if len(req.Lines) == 0 {
		if sessionID := getSessionID(ctx); sessionID != "" {
			store = h.carts.Open(ctx, sessionID)
			req.Lines = linesFromCart(store.Items())
		}
	}

	res := h.orders.PlaceOrder(ctx, req)
	if res.Success && store != nil {
		store.Clear(ctx)
		h.logger.Info("cart submitted", "order_id", res.OrderID)
	}

	respondResult(w, http.StatusCreated, res)
}

func linesFromCart(items []domain.CartItem) []domain.OrderLineRequest {
	lines := make([]domain.OrderLineRequest, 0, len(items))
	for _, item := range items {
		price := item.UnitPrice
		lines = append(lines, domain.OrderLineRequest{
			ProductID:     item.ID,
			Quantity:      item.Quantity,
			UnitPriceHint: &price,
		})
	}
	return lines
}
