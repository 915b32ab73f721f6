package adapters

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"saral/internal/eligibility/ports"
	"saral/pkg/platform/audit"
	"saral/pkg/requestcontext"
)

// AuditFailureRecorder implements ports.FailureRecorder by emitting a
// failure_logged audit event. Emission errors are logged and dropped.
type AuditFailureRecorder struct {
	audit  ports.AuditPort
	logger *slog.Logger
}

// NewAuditFailureRecorder creates a failure recorder backed by an audit emitter.
func NewAuditFailureRecorder(emitter ports.AuditPort, logger *slog.Logger) ports.FailureRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditFailureRecorder{audit: emitter, logger: logger}
}

// Record emits the failure and returns its id.
func (r *AuditFailureRecorder) Record(ctx context.Context, stage string, err error, fields map[string]string) string {
	failureID := uuid.NewString()
	requestID := requestcontext.RequestID(ctx)

	payload := make(map[string]string, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["failure_id"] = failureID
	payload["stage"] = stage

	reason := ""
	if err != nil {
		reason = err.Error()
	}

	r.logger.WarnContext(ctx, "recoverable failure",
		"stage", stage,
		"failure_id", failureID,
		"error", reason,
		"request_id", requestID,
	)

	if r.audit == nil {
		return failureID
	}
	if emitErr := r.audit.Emit(ctx, audit.Event{
		Action:    string(audit.EventFailureLogged),
		Reason:    reason,
		RequestID: requestID,
		Payload:   payload,
	}); emitErr != nil {
		r.logger.ErrorContext(ctx, "failed to emit failure event",
			"stage", stage,
			"failure_id", failureID,
			"error", emitErr,
			"request_id", requestID,
		)
	}
	return failureID
}
