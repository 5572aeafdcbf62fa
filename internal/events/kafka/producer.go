package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/utils/metrics"
)

// Topics for the IAM event streams.
const (
	TopicRoleEvents       = "iam.role.events"
	TopicPermissionEvents = "iam.permission.events"
	TopicAuditEvents      = "iam.audit.events"
)

// Producer writes domain events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a Producer for the given brokers.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Produce sends one message with its own timeout, independent of the caller's
// request context.
func (p *Producer) Produce(topic string, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to write message to Kafka",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
		metrics.EventsPublishedTotal.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, "ok").Inc()
	return nil
}

// ProduceJSON marshals value and sends it.
func (p *Producer) ProduceJSON(topic string, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return p.Produce(topic, key, data)
}
