package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"saral/internal/eligibility/risk"
	"saral/internal/eligibility/store/cases"
	dErrors "saral/pkg/domain-errors"
	"saral/pkg/platform/audit"
	"saral/pkg/requestcontext"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// Health states reported per dependency.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
	HealthMissing  = "missing"
)

// HealthReport is the ops view of the service and its dependencies. Healthy
// is false only when the case store is unreachable; the classifier and the
// optional dependencies degrade the report without failing it.
type HealthReport struct {
	Status       string            `json:"status"`
	Healthy      bool              `json:"-"`
	Database     string            `json:"database"`
	Model        string            `json:"ai_model"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Version      string            `json:"version"`
	CheckedAt    time.Time         `json:"checked_at"`
}

// ModelInfo describes the classifier artifact a case would be scored with.
type ModelInfo struct {
	Version     string `json:"model_version"`
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Available   bool   `json:"available"`
	Intent      bool   `json:"intent_available"`
	Ruleset     string `json:"ruleset_version"`
	Error       string `json:"error,omitempty"`
}

// Summary returns case counts grouped by scheme and status.
func (s *Service) Summary(ctx context.Context) ([]cases.StatusCount, error) {
	counts, err := s.cases.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize cases")
	}
	return counts, nil
}

// PruneProfiles drops profile data from cases older than the retention window
// and returns how many cases were redacted.
func (s *Service) PruneProfiles(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-s.cfg.PIIRetention)

	var pruned int
	err := s.inTx(ctx, func(ctx context.Context) error {
		n, err := s.cases.RedactProfilesBefore(ctx, cutoff, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to prune profiles")
		}
		pruned = n
		if n == 0 {
			return nil
		}
		if err := s.emitCompliance(ctx, audit.Event{
			Action: string(audit.EventProfilesPruned),
			Payload: map[string]string{
				"count":  strconv.Itoa(n),
				"cutoff": cutoff.UTC().Format(time.RFC3339),
			},
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record pruning")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "profiles pruned",
		"count", pruned,
		"cutoff", cutoff,
		"request_id", requestcontext.RequestID(ctx),
	)
	return pruned, nil
}

// RecentEvents returns the newest audit events. limit is clamped to 1..200;
// zero selects the default.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.feed == nil {
		return []audit.Event{}, nil
	}
	switch {
	case limit == 0:
		limit = defaultEventLimit
	case limit < 1:
		limit = 1
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	events, err := s.feed.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load events")
	}
	return events, nil
}

// Health pings the case store and every registered dependency.
func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    HealthOK,
		Healthy:   true,
		Database:  HealthOK,
		Model:     HealthOK,
		Version:   s.cfg.Provenance.AppVersion,
		CheckedAt: requestcontext.Now(ctx),
	}

	if err := s.cases.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "case store unreachable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		report.Database = HealthError
		report.Healthy = false
		report.Status = HealthError
	}
	if !s.engine.Risk.Available() {
		report.Model = HealthMissing
		if report.Healthy {
			report.Status = HealthDegraded
		}
	}

	if len(s.checks) > 0 {
		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		report.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			if err := s.checks[name].Health(ctx); err != nil {
				s.logger.WarnContext(ctx, "dependency unhealthy",
					"dependency", name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				report.Dependencies[name] = HealthError
				if report.Healthy {
					report.Status = HealthDegraded
				}
				continue
			}
			report.Dependencies[name] = HealthOK
		}
	}
	return report
}

// ModelMeta fingerprints the configured classifier artifact.
func (s *Service) ModelMeta(ctx context.Context) ModelInfo {
	info := ModelInfo{
		Version:   s.cfg.Provenance.ModelVersion,
		Path:      s.cfg.ModelPath,
		Available: s.engine.Risk.Available(),
		Intent:    s.engine.Intent != nil && s.engine.Intent.Available(),
		Ruleset:   s.cfg.Provenance.RulesetVersion,
	}
	if s.cfg.ModelPath == "" {
		info.Error = risk.ErrModelMissing.Error()
		return info
	}
	fp, err := risk.Fingerprint(s.cfg.ModelPath)
	if err != nil {
		s.logger.WarnContext(ctx, "model fingerprint failed",
			"path", s.cfg.ModelPath,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		info.Error = err.Error()
		return info
	}
	info.Fingerprint = fp
	return info
}
