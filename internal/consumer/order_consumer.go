// Package consumer reacts to order events published from the outbox.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const retryDelay = time.Second

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Cart is the cart operation the consumer needs.
type Cart interface {
	ClearOrdered(ctx context.Context, owner string, ordered []domain.LineItem) (bool, error)
}

type orderPlaced struct {
	OrderID string            `json:"order_id"`
	Owner   string            `json:"owner"`
	Items   []domain.LineItem `json:"items"`
}

// NewKafkaReader returns a consumer group reader for topic.
func NewKafkaReader(topic, group string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MaxBytes: 10e6, // 10MB
	})
}

// OrderConsumer empties a shopper's cart once their order is placed, unless the cart changed in
// the meantime. Checkout already clears the cart inline; this covers the case where that write
// failed.
type OrderConsumer struct {
	reader     MessageReader
	cart       Cart
	log        *zap.Logger
	retryDelay time.Duration
}

func NewOrderConsumer(reader MessageReader, cart Cart, log *zap.Logger) *OrderConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderConsumer{
		reader:     reader,
		cart:       cart,
		log:        log.With(zap.String("component", "order_consumer")),
		retryDelay: retryDelay,
	}
}

// Run consumes until ctx is cancelled.
func (c *OrderConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.Warn("kafka read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *OrderConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", zap.Error(err))
	}
}

// processMessage handles one message. A reader does not hand out an uncommitted message again,
// so a failed message is retried in place until it succeeds or ctx ends; the offset is committed
// only after the cart was reconciled.
func (c *OrderConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	for {
		err := c.handle(ctx, m)
		if err == nil {
			break
		}
		c.log.Warn("order event not processed, retrying",
			zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		return fmt.Errorf("commit offset: %w", err)
	}
	return nil
}

func (c *OrderConsumer) handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != domain.EventOrderPlaced {
		return nil
	}

	var event orderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		// a malformed event never becomes valid; skip it
		c.log.Error("malformed order event", zap.ByteString("key", m.Key), zap.Error(err))
		return nil
	}
	if event.Owner == "" {
		c.log.Error("order event without owner", zap.String("order_id", event.OrderID))
		return nil
	}

	cleared, err := c.cart.ClearOrdered(ctx, event.Owner, event.Items)
	if err != nil {
		return fmt.Errorf("clear cart for order %s: %w", event.OrderID, err)
	}
	if cleared {
		c.log.Info("cart cleared after order", zap.String("order_id", event.OrderID))
	}
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
