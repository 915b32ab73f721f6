package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"saral/internal/eligibility/models"
	id "saral/pkg/domain"
	"saral/pkg/platform/sentinel"
	txcontext "saral/pkg/platform/tx"
)

const uniqueViolation = "23505"

const caseColumns = `
	id, citizen_id, scheme_code, source, locale, session_id, channel,
	profile, profile_redacted_at, arm, assignment_reason,
	rule_result, reasons, tags, alternatives, documents, near_miss, risk,
	audit_flag, fairness_review, flag_reasons, decision_status,
	status, final_action, reason_code, operator_id, operator_comment,
	operator_flagged, override_flag, opened_at, decided_at,
	app_version, ruleset_version, model_version, schema_version,
	meta_duration_seconds, created_at, updated_at, sop_version, intent_label`

// PostgresStore persists cases in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed case store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	args, err := caseArgs(c)
	if err != nil {
		return err
	}
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := `INSERT INTO cases (` + caseColumns + `) VALUES (` + strings.Join(placeholders, ", ") + `)`
	if _, err := s.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, uuid.UUID(caseID))
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*models.Case, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.SchemeCode != "" {
		add("scheme_code = $%d", f.SchemeCode)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Arm != "" {
		add("arm = $%d", string(f.Arm))
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// Update locks the row, applies fn and writes back the mutable columns in
// one transaction. The decision columns are never rewritten.
func (s *PostgresStore) Update(ctx context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error) {
	var updated *models.Case
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, uuid.UUID(caseID))
		c, err := scanCase(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
			}
			return fmt.Errorf("lock case: %w", err)
		}
		if err := fn(c); err != nil {
			return err
		}

		var d models.Disposition
		if c.Disposition != nil {
			d = *c.Disposition
		}
		profile, err := marshalProfile(c.Profile)
		if err != nil {
			return err
		}
		_, err = s.conn(ctx).ExecContext(ctx, `
			UPDATE cases SET
				status = $2, final_action = $3, reason_code = $4, operator_id = $5,
				operator_comment = $6, operator_flagged = $7, override_flag = $8,
				opened_at = $9, decided_at = $10, profile = $11, profile_redacted_at = $12,
				updated_at = $13, sop_version = $14, intent_label = $15
			WHERE id = $1`,
			uuid.UUID(c.ID), string(c.Status), string(d.FinalAction), string(d.ReasonCode), d.OperatorID.String(),
			d.Comment, d.Flagged, nullBool(c.OverrideFlag),
			nullTime(c.OpenedAt), nullTime(c.DecidedAt), profile, nullTime(c.ProfileRedactedAt),
			c.UpdatedAt, d.SOPVersion, c.IntentLabel,
		)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) RedactProfilesBefore(ctx context.Context, cutoff, now time.Time) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE cases SET profile = NULL, intent_label = '', profile_redacted_at = $2, updated_at = $2
		WHERE created_at < $1 AND profile_redacted_at IS NULL`,
		cutoff, now,
	)
	if err != nil {
		return 0, fmt.Errorf("redact profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("redact profiles rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT scheme_code, status, COUNT(*) FROM cases
		GROUP BY scheme_code, status
		ORDER BY scheme_code, status`)
	if err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	defer rows.Close()

	out := []StatusCount{}
	for rows.Next() {
		var sc StatusCount
		var status string
		if err := rows.Scan(&sc.SchemeCode, &status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		sc.Status = models.DecisionStatus(status)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping cases db: %w", sentinel.ErrUnavailable)
	}
	return nil
}

func caseArgs(c *models.Case) ([]any, error) {
	profile, err := marshalProfile(c.Profile)
	if err != nil {
		return nil, err
	}
	nearMiss, err := json.Marshal(c.Decision.NearMiss)
	if err != nil {
		return nil, fmt.Errorf("marshal near miss: %w", err)
	}
	risk, err := json.Marshal(c.Decision.Risk)
	if err != nil {
		return nil, fmt.Errorf("marshal risk: %w", err)
	}
	flagReasons, err := json.Marshal(c.Decision.FlagReasons)
	if err != nil {
		return nil, fmt.Errorf("marshal flag reasons: %w", err)
	}
	var d models.Disposition
	if c.Disposition != nil {
		d = *c.Disposition
	}
	return []any{
		uuid.UUID(c.ID), c.CitizenID.String(), c.SchemeCode, c.Source.String(), c.Locale, c.SessionID, c.Channel,
		profile, nullTime(c.ProfileRedactedAt), string(c.Assignment.Arm), c.Assignment.Reason,
		string(c.Decision.RuleResult), pq.Array(nonNil(c.Decision.Reasons)), pq.Array(nonNil(c.Decision.Tags)),
		pq.Array(nonNil(c.Decision.Alternatives)), pq.Array(nonNil(c.Documents)), nearMiss, risk,
		c.Decision.AuditFlag, c.Decision.FairnessReview, flagReasons, string(c.Decision.Status),
		string(c.Status), string(d.FinalAction), string(d.ReasonCode), d.OperatorID.String(), d.Comment,
		d.Flagged, nullBool(c.OverrideFlag), nullTime(c.OpenedAt), nullTime(c.DecidedAt),
		c.Provenance.AppVersion, c.Provenance.RulesetVersion, c.Provenance.ModelVersion, c.Provenance.SchemaVersion,
		c.MetaDurationSeconds, c.CreatedAt, c.UpdatedAt, d.SOPVersion, c.IntentLabel,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*models.Case, error) {
	var (
		c                                    models.Case
		caseID                               uuid.UUID
		citizen, source, arm, ruleResult     string
		decisionStatus, status               string
		finalAction, reasonCode, operatorID  string
		comment, sopVersion                  string
		flagged                              bool
		profile, nearMiss, risk, flagReasons []byte
		reasons, tags, alternatives, docs    []string
		redactedAt, openedAt, decidedAt      sql.NullTime
		override                             sql.NullBool
	)
	err := row.Scan(
		&caseID, &citizen, &c.SchemeCode, &source, &c.Locale, &c.SessionID, &c.Channel,
		&profile, &redactedAt, &arm, &c.Assignment.Reason,
		&ruleResult, pq.Array(&reasons), pq.Array(&tags), pq.Array(&alternatives), pq.Array(&docs), &nearMiss, &risk,
		&c.Decision.AuditFlag, &c.Decision.FairnessReview, &flagReasons, &decisionStatus,
		&status, &finalAction, &reasonCode, &operatorID, &comment,
		&flagged, &override, &openedAt, &decidedAt,
		&c.Provenance.AppVersion, &c.Provenance.RulesetVersion, &c.Provenance.ModelVersion, &c.Provenance.SchemaVersion,
		&c.MetaDurationSeconds, &c.CreatedAt, &c.UpdatedAt, &sopVersion, &c.IntentLabel,
	)
	if err != nil {
		return nil, err
	}

	c.ID = id.CaseID(caseID)
	c.CitizenID = id.CitizenID(citizen)
	c.Source = id.Source(source)
	c.Assignment.Arm = models.Arm(arm)
	c.Decision.RuleResult = models.RuleResult(ruleResult)
	c.Decision.Reasons = nonNil(reasons)
	c.Decision.Tags = nonNil(tags)
	c.Decision.Alternatives = nonNil(alternatives)
	c.Decision.Status = models.DecisionStatus(decisionStatus)
	c.Documents = nonNil(docs)
	c.Status = models.DecisionStatus(status)

	if len(profile) > 0 {
		var p models.Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		c.Profile = &p
	}
	if err := json.Unmarshal(nearMiss, &c.Decision.NearMiss); err != nil {
		return nil, fmt.Errorf("unmarshal near miss: %w", err)
	}
	if err := json.Unmarshal(risk, &c.Decision.Risk); err != nil {
		return nil, fmt.Errorf("unmarshal risk: %w", err)
	}
	if err := json.Unmarshal(flagReasons, &c.Decision.FlagReasons); err != nil {
		return nil, fmt.Errorf("unmarshal flag reasons: %w", err)
	}

	if finalAction != "" {
		// Rows disposed before sop_version was stored carry an empty value.
		if sopVersion == "" {
			sopVersion = models.SOPVersion
		}
		c.Disposition = &models.Disposition{
			FinalAction: models.FinalAction(finalAction),
			ReasonCode:  models.ReasonCode(reasonCode),
			OperatorID:  id.OperatorID(operatorID),
			Comment:     comment,
			Flagged:     flagged,
			SOPVersion:  sopVersion,
		}
	}
	if override.Valid {
		v := override.Bool
		c.OverrideFlag = &v
	}
	c.ProfileRedactedAt = timePtr(redactedAt)
	c.OpenedAt = timePtr(openedAt)
	c.DecidedAt = timePtr(decidedAt)
	return &c, nil
}

func marshalProfile(p *models.Profile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return b, nil
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
