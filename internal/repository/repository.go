package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_delivery/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrBannerNotFound   = errors.New("banner not found")
	ErrDuplicateSlug    = errors.New("category slug already exists")
	ErrCategoryInUse    = errors.New("category still has products")
	ErrEventNotFound    = errors.New("outbox event not found")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Credentials struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListNewestProducts(ctx context.Context, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	PricesByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error)
	GetBanner(ctx context.Context, id string) (*domain.Banner, error)
	CreateBanner(ctx context.Context, b *domain.Banner) error
	UpdateBanner(ctx context.Context, b *domain.Banner) error
	SetBannerActive(ctx context.Context, id string, active bool) error
	DeleteBanner(ctx context.Context, id string) error
}

// OrderRepository writes the order aggregate. Every write takes the outbox
// event to append in the same transaction; a nil event skips the outbox.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error
	ReplaceOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error
	DeleteOrder(ctx context.Context, id string, event *domain.OutboxEvent) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
