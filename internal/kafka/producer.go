package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes domain events. PublishAsync returns immediately and
// reports the broker acknowledgement through the done callback, which the
// outbox dispatcher uses to flip event status off the hot path.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	PublishAsync(ctx context.Context, topic, key string, value []byte, done func(error))
	Close() error
}

type producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(brokers []string, logger *slog.Logger) Producer {
	writer := &kafka.Writer{
		Addr: kafka.TCP(brokers...),
		// Hash by message key so events for one aggregate stay ordered
		// within a partition.
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &producer{writer: writer, logger: logger}
}

func (p *producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish message",
			"topic", topic,
			"key", key,
			"error", err)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.logger.Debug("published message", "topic", topic, "key", key)
	return nil
}

func (p *producer) PublishAsync(ctx context.Context, topic, key string, value []byte, done func(error)) {
	go func() {
		done(p.Publish(ctx, topic, key, value))
	}()
}

func (p *producer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("failed to close kafka producer", "error", err)
		return fmt.Errorf("close kafka producer: %w", err)
	}
	p.logger.Info("kafka producer closed")
	return nil
}
