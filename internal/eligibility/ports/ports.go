package ports

import (
	"context"

	"saral/pkg/platform/audit"
)

// AuditPort defines the interface for emitting audit events.
// This matches the audit emitters but is defined here to maintain
// hexagonal boundaries.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FailureRecorder makes recoverable failures observable. It is fire and
// forget: Record never fails and returns the id assigned to the failure.
type FailureRecorder interface {
	Record(ctx context.Context, stage string, err error, fields map[string]string) string
}
