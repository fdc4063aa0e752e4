package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const batchSize = 100

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays order events written by the order transactions to
// Kafka. An event is marked processed only after the broker accepted it, so
// delivery is at least once.
type OutboxPoller struct {
	eventTick time.Duration
	repo      repository.OutboxRepository
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

func NewOutboxPoller(repo repository.OutboxRepository, topic string, logger *slog.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return newOutboxPoller(repo, w, time.Second, logger)
}

func newOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, tick time.Duration, logger *slog.Logger) *OutboxPoller {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-orders",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &OutboxPoller{
		eventTick: tick,
		repo:      repo,
		writer:    writer,
		breaker:   breaker,
		logger:    logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", "error", err)
		return
	}

	// an order whose event failed keeps its later events for the next tick
	blocked := make(map[string]struct{})
	for _, event := range events {
		if _, ok := blocked[event.AggregateID]; ok {
			continue
		}
		if err := p.publish(ctx, event); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.logger.Warn("broker unavailable, postponing outbox batch", "pending", len(events))
				return
			}
			p.logger.Error("failed to publish outbox event", "event_id", event.ID, "aggregate_id", event.AggregateID, "error", err)
			blocked[event.AggregateID] = struct{}{}
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event as processed", "event_id", event.ID, "error", err)
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events in order
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}
