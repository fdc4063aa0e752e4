package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
)

// Store is one visitor's cart. It is loaded from its slot once, then every
// mutation rewrites the whole item list back to the slot.
//
// Two stores opened on the same slot do not coordinate; the last one to
// persist wins.
type Store struct {
	mu     sync.Mutex
	slot   Slot
	items  []domain.CartItem
	logger *slog.Logger
}

// Open loads the cart from slot. A missing or unreadable record yields an
// empty cart; the problem is logged and never returned.
func Open(ctx context.Context, slot Slot, logger *slog.Logger) *Store {
	s := &Store{slot: slot, logger: logger}

	data, err := slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			logger.Warn("failed to load cart, starting empty", "error", err)
		}
		return s
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("corrupt cart record, starting empty", "error", err)
		return s
	}
	s.items = dedupe(items)
	return s
}

// AddItem increments the quantity of an existing entry, or appends a new entry
// with quantity 1. The unit price of an existing entry is kept as first seen.
func (s *Store) AddItem(ctx context.Context, product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, domain.CartItem{
			ID:        product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			PhotoRef:  product.PhotoRef,
			Quantity:  1,
		})
	}
	s.persist(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of an entry; zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(id)
	} else if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity = quantity
	}
	s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist(ctx)
}

// Items returns a copy of the current entries in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalCount(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartSnapshot{
		Items:          s.copyItems(),
		TotalItemCount: totalCount(s.items),
		TotalPrice:     totalPrice(s.items),
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) remove(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

func (s *Store) copyItems() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to encode cart", "error", err)
		return
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.logger.Error("failed to persist cart", "error", err)
	}
}

func totalCount(items []domain.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalPrice(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// dedupe folds a stored list back into the one-entry-per-id shape and drops
// entries that could not have been produced by the store.
func dedupe(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := seen[it.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
