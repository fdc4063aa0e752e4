package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/logger"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
)

// --- Mocks ---

type StorefrontMock struct {
	home     *service.HomePage
	category *domain.Category
	products map[string]*domain.Product
	err      error
}

func (m StorefrontMock) Home(ctx context.Context) (*service.HomePage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.home, nil
}

func (m StorefrontMock) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.category == nil || m.category.Slug != slug {
		return nil, service.ErrCategoryNotFound
	}
	return m.category, nil
}

func (m StorefrontMock) Product(ctx context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, service.ErrProductNotFound
	}
	return p, nil
}

type OrdersMock struct {
	mu      sync.Mutex
	placed  []service.CheckoutInput
	created []service.AdminOrderInput
	editID  string
	result  service.Result
	order   *domain.Order
	orders  []domain.Order
	err     error
}

func (m *OrdersMock) PlaceOrder(ctx context.Context, in service.CheckoutInput) service.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, in)
	return m.result
}

func (m *OrdersMock) CreateOrder(ctx context.Context, in service.AdminOrderInput) service.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	return m.result
}

func (m *OrdersMock) EditOrder(ctx context.Context, id string, in service.AdminOrderInput) service.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editID = id
	return m.result
}

func (m *OrdersMock) DeleteOrder(ctx context.Context, id string) service.Result {
	return m.result
}

func (m *OrdersMock) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *OrdersMock) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

// --- helpers ---

func newCarts() (*cart.Manager, *cart.MemorySlots) {
	slots := cart.NewMemorySlots()
	return cart.NewManager(slots, logger.Discard()), slots
}

func withSession(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
