// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes trade events as JSON, keyed by user id so one user's trades stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewKafkaWriter constructs a kafka.Writer for the trades topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Dialer:       dialer,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
	})
}

// NewKafkaPublisher wraps writer. A nil logger falls back to slog.Default().
func NewKafkaPublisher(writer MessageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// PublishTrade encodes event and writes it to the topic.
func (p *KafkaPublisher) PublishTrade(ctx context.Context, event TradeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("publish trade: failed to encode event %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: payload,
		Time:  event.ExecutedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish trade: failed to write event %s: %w", event.ID, err)
	}
	p.logger.Debug("trade event published", "event_id", event.ID, "symbol", event.Symbol, "side", event.Side)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
