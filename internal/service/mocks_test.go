package service

import (
	"context"
	"sync"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/repository"
)

// mockCatalog implements PriceCatalog
type mockCatalog struct {
	m        sync.Mutex
	products map[string]domain.Product
	err      error
	calls    int
	lastIDs  []string
}

func (c *mockCatalog) PricesByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.calls++
	c.lastIDs = ids
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]domain.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// mockOrderRepo implements repository.OrderRepository. A replace that fails
// keeps the stored order untouched, like a rolled back transaction.
type mockOrderRepo struct {
	m          sync.Mutex
	orders     map[string]*domain.Order
	events     []*domain.OutboxEvent
	createErr  error
	replaceErr error
	deleteErr  error
	listErr    error
	calls      int
	listCalls  int
	listHook   func() // runs after the listing is read, outside the lock
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order, event *domain.OutboxEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	cp := *order
	r.orders[order.ID] = &cp
	r.events = append(r.events, event)
	return nil
}

func (r *mockOrderRepo) ReplaceOrder(_ context.Context, order *domain.Order, event *domain.OutboxEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	existing, ok := r.orders[order.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if r.replaceErr != nil {
		return r.replaceErr
	}
	existing.CustomerName = order.CustomerName
	existing.Phone = order.Phone
	existing.DeliveryAddress = order.DeliveryAddress
	existing.UpdatedAt = order.UpdatedAt
	existing.Lines = order.Lines
	r.events = append(r.events, event)
	return nil
}

func (r *mockOrderRepo) DeleteOrder(_ context.Context, id string, event *domain.OutboxEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(r.orders, id)
	r.events = append(r.events, event)
	return nil
}

func (r *mockOrderRepo) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepo) ListOrders(context.Context) ([]domain.Order, error) {
	r.m.Lock()
	r.listCalls++
	if r.listErr != nil {
		r.m.Unlock()
		return nil, r.listErr
	}
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	r.m.Unlock()

	if r.listHook != nil {
		r.listHook()
	}
	return out, nil
}

func (r *mockOrderRepo) get(id string) *domain.Order {
	r.m.Lock()
	defer r.m.Unlock()
	return r.orders[id]
}

func (r *mockOrderRepo) callCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.calls
}

// mockCache implements cache.OrderListCache
type mockCache struct {
	m           sync.Mutex
	orders      []domain.Order
	getErr      error
	invalidated int
}

func (c *mockCache) Get(context.Context) ([]domain.Order, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.orders == nil {
		return nil, cache.ErrCacheMiss
	}
	return c.orders, nil
}

func (c *mockCache) Set(_ context.Context, orders []domain.Order) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.orders = orders
	return nil
}

func (c *mockCache) Invalidate(context.Context) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.orders = nil
	c.invalidated++
	return nil
}

func (c *mockCache) cached() []domain.Order {
	c.m.Lock()
	defer c.m.Unlock()
	return c.orders
}

func (c *mockCache) invalidations() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.invalidated
}
