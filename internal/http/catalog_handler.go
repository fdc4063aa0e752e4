package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
)

// CatalogAdmin manages categories, products and banners.
type CatalogAdmin interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) service.Result
	UpdateCategory(ctx context.Context, id string, in service.CategoryInput) service.Result
	DeleteCategory(ctx context.Context, id string) service.Result

	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) service.Result
	UpdateProduct(ctx context.Context, id string, in service.ProductInput) service.Result
	DeleteProduct(ctx context.Context, id string) service.Result

	ListBanners(ctx context.Context) ([]domain.Banner, error)
	CreateBanner(ctx context.Context, in service.BannerInput) service.Result
	UpdateBanner(ctx context.Context, id string, in service.BannerInput) service.Result
	SetBannerActive(ctx context.Context, id string, active bool) service.Result
	DeleteBanner(ctx context.Context, id string) service.Result
}

type CatalogHandler struct {
	catalog CatalogAdmin
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogAdmin, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type SetActiveRequestDTO struct {
	Active *bool `json:"active"`
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusCreated, h.catalog.CreateCategory(r.Context(), req))
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusOK, h.catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	respondResult(w, http.StatusOK, h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")))
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusCreated, h.catalog.CreateProduct(r.Context(), req))
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusOK, h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req))
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	respondResult(w, http.StatusOK, h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")))
}

func (h *CatalogHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.ListBanners(r.Context())
	if err != nil {
		respondLookupError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"banners": banners})
}

func (h *CatalogHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusCreated, h.catalog.CreateBanner(r.Context(), req))
}

func (h *CatalogHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req service.BannerInput
	if !decodeJSON(w, r, &req) {
		return
	}
	respondResult(w, http.StatusOK, h.catalog.UpdateBanner(r.Context(), chi.URLParam(r, "id"), req))
}

// PATCH /api/v1/admin/banners/{id}/active
func (h *CatalogHandler) SetBannerActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "active is required")
		return
	}
	respondResult(w, http.StatusOK, h.catalog.SetBannerActive(r.Context(), chi.URLParam(r, "id"), *req.Active))
}

func (h *CatalogHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	respondResult(w, http.StatusOK, h.catalog.DeleteBanner(r.Context(), chi.URLParam(r, "id")))
}
