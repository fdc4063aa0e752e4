package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_delivery/internal/domain"
)

// OrderListCache holds the admin order listing between writes.
type OrderListCache interface {
	Get(ctx context.Context) ([]domain.Order, error)
	Set(ctx context.Context, orders []domain.Order) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
