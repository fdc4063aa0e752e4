package cart

import (
	"context"
	"log/slog"
)

// Manager opens the cart of a visitor session on top of a slot backend.
type Manager struct {
	slots  SlotFactory
	logger *slog.Logger
}

func NewManager(slots SlotFactory, logger *slog.Logger) *Manager {
	return &Manager{slots: slots, logger: logger}
}

func (m *Manager) Open(ctx context.Context, sessionID string) *Store {
	return Open(ctx, m.slots.Slot(sessionID), m.logger.With("cart_session", sessionID))
}
