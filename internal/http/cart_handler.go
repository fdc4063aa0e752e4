package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   *cart.Manager
	catalog Storefront
	logger  *slog.Logger
}

func NewCartHandler(carts *cart.Manager, catalog Storefront, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	store := h.carts.Open(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// POST /api/v1/cart/items adds one unit of a catalog product.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := getSessionID(ctx)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.Product(ctx, req.ProductID)
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}

	store := h.carts.Open(ctx, sessionID)
	store.AddItem(ctx, *product)
	respondJSON(w, http.StatusCreated, store.Snapshot())
}

// PUT /api/v1/cart/items/{product_id}. A quantity of zero or less removes the
// line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := getSessionID(ctx)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	store := h.carts.Open(ctx, sessionID)
	store.UpdateQuantity(ctx, chi.URLParam(r, "product_id"), req.Quantity)
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := getSessionID(ctx)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	store := h.carts.Open(ctx, sessionID)
	store.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := getSessionID(ctx)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing cart session")
		return
	}

	store := h.carts.Open(ctx, sessionID)
	store.Clear(ctx)
	respondJSON(w, http.StatusOK, store.Snapshot())
}
