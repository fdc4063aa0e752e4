package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_MarkProcessed(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		order := newOrder(time.Now().UTC(), line("p1", 1, "1.00"))
		require.NoError(t, repo.CreateOrder(ctx, order, &domain.OutboxEvent{
			AggregateID: order.ID,
			EventType:   domain.EventOrderCreated,
			Payload:     []byte(`{"n":1}`),
			CreatedAt:   time.Now().UTC(),
		}))
	}

	events, err := repo.GetUnprocessedEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Less(t, events[0].ID, events[1].ID)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	remaining, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, events[1].ID, remaining[0].ID)

	assert.ErrorIs(t, repo.MarkEventAsProcessed(ctx, 9999), ErrEventNotFound)
}
