package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Catalog is everything the router needs from the catalog service.
type Catalog interface {
	Storefront
	CatalogAdmin
}

// Orders is everything the router needs from the order service.
type Orders interface {
	Checkout
	OrderAdmin
}

type RouterConfig struct {
	Catalog        Catalog
	Orders         Orders
	Carts          *cart.Manager
	Sessions       sessions.Store
	DB             Pinger
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	storefront := NewStorefrontHandler(cfg.Catalog, cfg.Logger)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Catalog, cfg.Logger)
	checkout := NewCheckoutHandler(cfg.Orders, cfg.Carts, cfg.Logger)
	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Logger)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.DB.Ping(r.Context()); err != nil {
			cfg.Logger.Warn("health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/home", storefront.Home)
		r.Get("/categories/{slug}", storefront.Category)
		r.Get("/products/{id}", storefront.Product)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Sessions, cfg.Logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})
			r.Post("/checkout", checkout.PlaceOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", catalogHandler.ListCategories)
				r.Post("/", catalogHandler.CreateCategory)
				r.Put("/{id}", catalogHandler.UpdateCategory)
				r.Delete("/{id}", catalogHandler.DeleteCategory)
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", catalogHandler.ListProducts)
				r.Post("/", catalogHandler.CreateProduct)
				r.Put("/{id}", catalogHandler.UpdateProduct)
				r.Delete("/{id}", catalogHandler.DeleteProduct)
			})
			r.Route("/banners", func(r chi.Router) {
				r.Get("/", catalogHandler.ListBanners)
				r.Post("/", catalogHandler.CreateBanner)
				r.Put("/{id}", catalogHandler.UpdateBanner)
				r.Patch("/{id}/active", catalogHandler.SetBannerActive)
				r.Delete("/{id}", catalogHandler.DeleteBanner)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Post("/", ordersHandler.CreateOrder)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Put("/{order_id}", ordersHandler.EditOrder)
				r.Delete("/{order_id}", ordersHandler.DeleteOrder)
			})
		})
	})

	return r
}
