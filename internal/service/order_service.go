package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// PriceCatalog resolves the current catalog entry of each product id. Ids
// unknown to the catalog are absent from the result.
type PriceCatalog interface {
	PricesByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type OrderService struct {
	catalog  PriceCatalog
	orders   repository.OrderRepository
	cache    cache.OrderListCache
	logger   *slog.Logger
	validate *validator.Validate
	sfg      singleflight.Group // Prevents cache stampede on the order list
	now      func() time.Time

	// generation counts committed order writes; a listing read before the
	// latest write must not be cached.
	generation atomic.Uint64
}

func NewOrderService(catalog PriceCatalog, orders repository.OrderRepository, cache cache.OrderListCache, logger *slog.Logger) *OrderService {
	return &OrderService{
		catalog:  catalog,
		orders:   orders,
		cache:    cache,
		logger:   logger,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder submits a storefront checkout. The unit price of every line is
// read from the catalog; any price sent by the client is ignored.
func (s *OrderService) PlaceOrder(ctx context.Context, in CheckoutInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	lines, err := s.priceLines(ctx, in.Lines)
	if err != nil {
		s.logger.Error("failed to resolve prices", "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	now := s.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		CustomerName:    in.CustomerName,
		Email:           in.Email,
		Phone:           in.Phone,
		DeliveryAddress: in.DeliveryAddress,
		Source:          domain.OrderSourceStorefront,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.Lines = attach(order.ID, lines)

	return s.create(ctx, order)
}

// CreateOrder registers an order typed in from the back office.
func (s *OrderService) CreateOrder(ctx context.Context, in AdminOrderInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	lines, err := s.priceLines(ctx, in.Lines)
	if err != nil {
		s.logger.Error("failed to resolve prices", "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	now := s.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		CustomerName:    in.CustomerName,
		Phone:           in.Phone,
		DeliveryAddress: in.DeliveryAddress,
		Source:          domain.OrderSourceAdmin,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.Lines = attach(order.ID, lines)

	return s.create(ctx, order)
}

// EditOrder rewrites the customer fields and replaces the whole line set.
// Either everything is stored or the order is left as it was.
func (s *OrderService) EditOrder(ctx context.Context, id string, in AdminOrderInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	lines, err := s.priceLines(ctx, in.Lines)
	if err != nil {
		s.logger.Error("failed to resolve prices", "order_id", id, "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	order := &domain.Order{
		ID:              id,
		CustomerName:    in.CustomerName,
		Phone:           in.Phone,
		DeliveryAddress: in.DeliveryAddress,
		UpdatedAt:       s.now(),
	}
	order.Lines = attach(order.ID, lines)

	if err := s.orders.ReplaceOrder(ctx, order, s.event(domain.EventOrderUpdated, order)); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return failure(KindNotFound, MsgOrderNotFound)
		}
		s.logger.Error("failed to replace order", "order_id", id, "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	s.invalidateCache()
	s.logger.Info("order updated", "order_id", id, "lines", len(order.Lines), "total", order.Total().StringFixed(2))
	return Result{Success: true, OrderID: id}
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) Result {
	order := &domain.Order{ID: id, UpdatedAt: s.now()}
	if err := s.orders.DeleteOrder(ctx, id, s.event(domain.EventOrderDeleted, order)); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return failure(KindNotFound, MsgOrderNotFound)
		}
		s.logger.Error("failed to delete order", "order_id", id, "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	s.invalidateCache()
	s.logger.Info("order deleted", "order_id", id)
	return Result{Success: true, OrderID: id}
}

// ListOrders returns every order, newest first. The listing is served from
// the cache when possible; concurrent misses share one database read.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	v, err, _ := s.sfg.Do("orders", func() (interface{}, error) {
		orders, err := s.cache.Get(ctx)
		if err == nil {
			return orders, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("order cache get failed", "error", err)
		}

		gen := s.generation.Load()
		orders, err = s.orders.ListOrders(ctx)
		if err != nil {
			return nil, err
		}

		go s.fillCache(gen, orders)

		return orders, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Order), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) create(ctx context.Context, order *domain.Order) Result {
	if err := s.orders.CreateOrder(ctx, order, s.event(domain.EventOrderCreated, order)); err != nil {
		s.logger.Error("failed to create order", "order_id", order.ID, "source", order.Source, "error", err)
		return failure(KindFailure, MsgOrderFailed)
	}

	s.invalidateCache()
	s.logger.Info("order created",
		"order_id", order.ID,
		"source", order.Source,
		"lines", len(order.Lines),
		"total", order.Total().StringFixed(2))
	return Result{Success: true, OrderID: order.ID}
}

// priceLines snapshots the current catalog price into each line. Products the
// catalog does not know are kept at price zero.
func (s *OrderService) priceLines(ctx context.Context, reqs []domain.OrderLineRequest) ([]domain.OrderLine, error) {
	ids := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}

	products, err := s.catalog.PricesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLine, 0, len(reqs))
	for _, r := range reqs {
		price := decimal.Zero
		p, ok := products[r.ProductID]
		if ok {
			price = p.Price
		} else {
			s.logger.Warn("product not in catalog, pricing line at zero", "product_id", r.ProductID)
		}
		lines = append(lines, domain.OrderLine{
			ID:          uuid.NewString(),
			ProductID:   r.ProductID,
			ProductName: p.Name,
			Quantity:    r.Quantity,
			UnitPrice:   price,
		})
	}
	return lines, nil
}

func attach(orderID string, lines []domain.OrderLine) []domain.OrderLine {
	for i := range lines {
		lines[i].OrderID = orderID
	}
	return lines
}

type orderEvent struct {
	OrderID      string             `json:"order_id"`
	Source       domain.OrderSource `json:"source,omitempty"`
	CustomerName string             `json:"customer_name,omitempty"`
	Lines        []domain.OrderLine `json:"lines,omitempty"`
	Total        decimal.Decimal    `json:"total"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

func (s *OrderService) event(eventType string, order *domain.Order) *domain.OutboxEvent {
	payload, err := json.Marshal(orderEvent{
		OrderID:      order.ID,
		Source:       order.Source,
		CustomerName: order.CustomerName,
		Lines:        order.Lines,
		Total:        order.Total(),
		OccurredAt:   order.UpdatedAt,
	})
	if err != nil {
		s.logger.Error("failed to encode order event", "order_id", order.ID, "error", err)
		payload = []byte(`{}`)
	}
	return &domain.OutboxEvent{
		AggregateID: order.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   order.UpdatedAt,
	}
}

// fillCache stores a listing read at generation gen. A write that committed
// since then makes the listing stale, so it is dropped, or cleared again if the
// write raced the Set.
func (s *OrderService) fillCache(gen uint64, orders []domain.Order) {
	if s.generation.Load() != gen {
		return
	}
	if err := s.cache.Set(context.Background(), orders); err != nil {
		s.logger.Warn("order cache set failed", "error", err)
		return
	}
	if s.generation.Load() != gen {
		s.invalidateCache()
	}
}

// invalidateCache must run after the write has committed.
func (s *OrderService) invalidateCache() {
	s.generation.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("order cache invalidate failed", "error", err)
	}
}
