package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/JaimeStill/docriver/pkg/lifecycle"
)

// Publisher delivers envelopes under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

type rmqClient struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger
}

// New dials url and declares a durable topic exchange.
func New(cfg *Config, logger *slog.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &rmqClient{
		conn:     conn,
		exchange: cfg.Exchange,
		logger:   logger.With("system", "pubsub", "exchange", cfg.Exchange),
	}, nil
}

func (r *rmqClient) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	id := msg.Meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	cid := msg.Meta.CorrelationID
	if cid == "" {
		cid = id
	}

	err = ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     id,
		CorrelationId: cid,
		Type:          msg.Meta.Type,
		AppId:         msg.Meta.Producer,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	r.logger.InfoContext(ctx, "published", "key", key, "id", id)
	return nil
}

func (r *rmqClient) Close() error {
	return r.conn.Close()
}

type fallback struct {
	logger *slog.Logger
}

// NewFallback returns a publisher that logs and drops every message. Hosts
// use it when no broker is configured.
func NewFallback(logger *slog.Logger) Publisher {
	return &fallback{logger: logger.With("system", "pubsub")}
}

func (f *fallback) Publish(ctx context.Context, key string, _ Envelope) error {
	f.logger.DebugContext(ctx, "no broker configured, publish skipped", "key", key)
	return nil
}

func (f *fallback) Close() error {
	return nil
}

// Register closes p when lc shuts down.
func Register(lc *lifecycle.Coordinator, p Publisher, logger *slog.Logger) {
	lc.OnShutdown(func() {
		if err := p.Close(); err != nil {
			logger.Error("publisher close failed", "error", err)
		}
	})
}
