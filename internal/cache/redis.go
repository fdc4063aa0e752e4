package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/redis/go-redis/v9"
)

const orderListKey = "orders:list"

func NewRedisOrderCache(client *redis.Client, baseTTL time.Duration) *RedisOrderCache {
	return &RedisOrderCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisOrderCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisOrderCache) Get(ctx context.Context) ([]domain.Order, error) {
	data, err := r.client.Get(ctx, orderListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("unmarshal orders failed: %w", err)
	}
	return orders, nil
}

func (r *RedisOrderCache) Set(ctx context.Context, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders failed: %w", err)
	}

	if err := r.client.Set(ctx, orderListKey, data, jittered(r.baseTTL)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisOrderCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, orderListKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// RedisSlots stores each session's cart under its own key. Every save
// refreshes the expiry, so an abandoned cart ages out after ttl.
type RedisSlots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlots(client *redis.Client, ttl time.Duration) *RedisSlots {
	return &RedisSlots{client: client, ttl: ttl}
}

func (r *RedisSlots) Slot(sessionID string) cart.Slot {
	return redisSlot{client: r.client, key: slotKey(sessionID), ttl: r.ttl}
}

type redisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (s redisSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s redisSlot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func slotKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", cart.StorageKey, sessionID)
}

// jittered spreads expiries over an extra fifth of the base TTL.
func jittered(base time.Duration) time.Duration {
	spread := int64(base / 5)
	if spread <= 0 {
		return base
	}
	return base + time.Duration(rand.Int63n(spread))
}
