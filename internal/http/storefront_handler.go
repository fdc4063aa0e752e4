package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
)

// Storefront is the read side of the catalog shown to visitors.
type Storefront interface {
	Home(ctx context.Context) (*service.HomePage, error)
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
}

type StorefrontHandler struct {
	catalog Storefront
	logger  *slog.Logger
}

func NewStorefrontHandler(catalog Storefront, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{catalog: catalog, logger: logger}
}

// GET /api/v1/home
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Home(r.Context())
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/v1/categories/{slug}
func (h *StorefrontHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// GET /api/v1/products/{id}
func (h *StorefrontHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
