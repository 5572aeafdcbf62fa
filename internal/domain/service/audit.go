package service

import (
	"context"

	"github.com/your-org/iam-service/internal/domain/models"
)

// AuditRecorder receives one entry per mutation attempt, success or failure.
// Recording is best effort; implementations must not fail the mutation.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, entry models.AuditEntry)
}

// NopAuditRecorder discards audit entries. Used in tests and when audit
// shipping is disabled.
type NopAuditRecorder struct{}

func (NopAuditRecorder) RecordEvent(context.Context, models.AuditEntry) {}
