package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/domain/models"
)

// Publisher is the fire-and-forget notification side-channel. Every publish
// is at most one delivery attempt with no retry; failures are logged and
// swallowed so callers never depend on delivery for correctness.
type Publisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewPublisher creates a Publisher over the given producer.
func NewPublisher(producer *Producer, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger,
	}
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func (p *Publisher) publish(topic, eventType, key string, payload interface{}) {
	if p.producer == nil {
		return // publication disabled
	}
	if err := p.producer.ProduceJSON(topic, key, envelope{Type: eventType, Payload: payload}); err != nil {
		p.logger.Warn("Dropping undeliverable event",
			zap.String("topic", topic),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

// PublishRoleEvent emits a role lifecycle event keyed by role id.
func (p *Publisher) PublishRoleEvent(eventType string, event models.RoleEvent) {
	p.publish(TopicRoleEvents, eventType, event.RoleID, event)
}

// PublishRoleAssignmentEvent emits a membership change keyed by role id.
func (p *Publisher) PublishRoleAssignmentEvent(event models.RoleAssignmentEvent) {
	p.publish(TopicRoleEvents, models.EventRoleAssignmentChanged, event.RoleID, event)
}

// PublishPermissionEvent emits a permission lifecycle event keyed by
// permission id.
func (p *Publisher) PublishPermissionEvent(eventType string, event models.PermissionEvent) {
	p.publish(TopicPermissionEvents, eventType, event.PermissionID, event)
}

// RecordEvent implements service.AuditRecorder by shipping the entry on the
// audit topic, best effort.
func (p *Publisher) RecordEvent(_ context.Context, entry models.AuditEntry) {
	p.publish(TopicAuditEvents, "audit.recorded", entry.TenantID, entry)
}
