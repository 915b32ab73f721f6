package service

import (
	"context"

	"saral/internal/eligibility/assist"
	"saral/internal/eligibility/intent"
	"saral/pkg/requestcontext"
)

// Assist rates how reviewable a submission is. It reads no stored state.
func (s *Service) Assist(ctx context.Context, in assist.Input) assist.Result {
	out := assist.Score(in)
	s.logger.DebugContext(ctx, "assist scored",
		"scheme_code", in.SchemeCode,
		"review_confidence", out.ReviewConfidence,
		"audit_flag", out.AuditFlag,
		"request_id", requestcontext.RequestID(ctx),
	)
	return out
}

// ClassifyIntent labels a free-text message. Without a configured classifier
// the outcome is unavailable.
func (s *Service) ClassifyIntent(ctx context.Context, text string) intent.Outcome {
	if s.engine.Intent == nil {
		return intent.Outcome{Label: intent.LabelUnknown, Cause: "model_missing"}
	}
	return s.engine.Intent.Classify(ctx, text)
}

// intentLabel is stored on the case only when the classifier produced one.
func (s *Service) intentLabel(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	out := s.ClassifyIntent(ctx, text)
	if !out.Available {
		return ""
	}
	return out.Label
}
