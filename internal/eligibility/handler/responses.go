package handler

import (
	"time"

	"saral/internal/eligibility/store/cases"
	"saral/pkg/platform/audit"
)

// SummaryResponse is the HTTP response for GET /ops/summary.
type SummaryResponse struct {
	Counts []cases.StatusCount `json:"counts"`
	Total  int                 `json:"total"`
}

// PruneResponse is the HTTP response for POST /ops/maintenance/prune.
type PruneResponse struct {
	Pruned int `json:"pruned"`
}

// EventResponse is one audit event in GET /events/recent.
type EventResponse struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Timestamp   time.Time         `json:"timestamp"`
	Action      string            `json:"action"`
	CaseID      string            `json:"case_id,omitempty"`
	SubjectHash string            `json:"subject_hash,omitempty"`
	Decision    string            `json:"decision,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
	ActorID     string            `json:"actor_id,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// EventsResponse is the HTTP response for GET /events/recent.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// FromSummary totals the grouped counts.
func FromSummary(counts []cases.StatusCount) *SummaryResponse {
	if counts == nil {
		counts = []cases.StatusCount{}
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return &SummaryResponse{Counts: counts, Total: total}
}

// FromEvents converts audit events to their HTTP representation.
func FromEvents(events []audit.Event) *EventsResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:          e.ID,
			Category:    string(e.Category),
			Timestamp:   e.Timestamp,
			Action:      e.Action,
			CaseID:      e.CaseID,
			SubjectHash: e.SubjectHash,
			Decision:    e.Decision,
			Reason:      e.Reason,
			RequestID:   e.RequestID,
			ActorID:     e.ActorID,
			Payload:     e.Payload,
		})
	}
	return &EventsResponse{Events: out}
}
