package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "saral/pkg/platform/audit"
	txcontext "saral/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an event. Idempotent on event ID via ON CONFLICT DO NOTHING,
// so a retried emit never duplicates a row.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, case_id, subject_hash, action,
			decision, reason, request_id, actor_id, payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.CaseID,
		event.SubjectHash,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, category, occurred_at, case_id, subject_hash, action,
			   decision, reason, request_id, actor_id, payload
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByCase returns the trail of one case, oldest first.
func (s *Store) ListByCase(ctx context.Context, caseID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, occurred_at, case_id, subject_hash, action,
			   decision, reason, request_id, actor_id, payload
		FROM audit_events
		WHERE case_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event    audit.Event
			eventID  uuid.UUID
			category string
			payload  []byte
		)
		err := rows.Scan(
			&eventID,
			&category,
			&event.Timestamp,
			&event.CaseID,
			&event.SubjectHash,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.ActorID,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = eventID.String()
		event.Category = audit.EventCategory(category)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode audit payload: %w", err)
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
