package cart

import (
	"context"
	"errors"
	"sync"
)

// StorageKey names the durable slot a visitor's cart lives in. Backends prefix
// it with the session id.
const StorageKey = "delivery-cart"

// ErrSlotEmpty is returned by Slot.Load when nothing was saved yet.
var ErrSlotEmpty = errors.New("cart slot is empty")

// Slot is a single durable key-value cell holding a serialized cart.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// SlotFactory returns the slot for one visitor session.
type SlotFactory interface {
	Slot(sessionID string) Slot
}

// MemorySlots keeps every session's cart in process memory.
type MemorySlots struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{data: make(map[string][]byte)}
}

func (m *MemorySlots) Slot(sessionID string) Slot {
	return &memorySlot{parent: m, key: StorageKey + ":" + sessionID}
}

// Put writes raw bytes into a session slot, bypassing the store.
func (m *MemorySlots) Put(sessionID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[StorageKey+":"+sessionID] = data
}

type memorySlot struct {
	parent *MemorySlots
	key    string
}

func (s *memorySlot) Load(context.Context) ([]byte, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()
	data, ok := s.parent.data[s.key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memorySlot) Save(_ context.Context, data []byte) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.parent.data[s.key] = stored
	return nil
}
