package handler

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"saral/internal/eligibility/service"
)

// exportFilenameLayout renders saral_export_YYYYMMDD_HHMMSS.csv.
const exportFilenameLayout = "saral_export_20060102_150405.csv"

var exportColumns = []string{
	"case_id", "created_at", "updated_at", "scheme_code", "source", "locale", "session_id",
	"meta_duration_seconds", "arm", "assignment_reason", "decision_support_shown",
	"status", "rule_result", "rule_reasons", "tags", "alternatives", "documents", "is_near_miss",
	"review_confidence", "risk_score", "risk_band", "top_reasons", "ml_available",
	"fairness_review", "audit_flag", "flag_reason",
	"final_action", "reason_code", "operator_id", "override_flag", "sop_version",
	"opened_at", "decided_at", "wait_seconds", "triage_seconds", "end_to_end_seconds",
	"profile_redacted", "app_version", "ruleset_version", "model_version", "schema_version",
}

func exportFilename(now time.Time) string {
	return now.UTC().Format(exportFilenameLayout)
}

// writeExportCSV writes the header and one record per row. Blinded fields are
// written as empty cells; list columns are JSON arrays.
func writeExportCSV(w io.Writer, rows []service.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(exportRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRecord(row service.ExportRow) []string {
	v := row.View
	riskBand := ""
	if v.RiskBand != nil {
		riskBand = string(*v.RiskBand)
	}
	return []string{
		v.ID,
		formatTime(&v.CreatedAt),
		formatTime(&v.UpdatedAt),
		v.SchemeCode,
		v.Source,
		v.Locale,
		v.SessionID,
		strconv.FormatInt(v.MetaDuration, 10),
		string(v.Arm),
		v.AssignmentReason,
		strconv.FormatBool(v.DecisionSupportShown),
		string(v.Status),
		string(v.RuleResult),
		jsonList(v.RuleReasons),
		jsonList(v.Tags),
		jsonList(v.Alternatives),
		jsonList(v.Documents),
		strconv.FormatBool(v.IsNearMiss),
		formatFloat(v.ReviewConfidence),
		formatFloat(v.RiskScore),
		riskBand,
		jsonList(v.TopReasons),
		formatBool(v.MLAvailable),
		formatBool(v.FairnessReview),
		formatBool(v.AuditFlag),
		v.FlagReason,
		string(v.FinalAction),
		string(v.ReasonCode),
		v.OperatorID,
		formatBool(v.OverrideFlag),
		v.SOPVersion,
		formatTime(v.OpenedAt),
		formatTime(v.DecidedAt),
		formatFloat(row.WaitSeconds),
		formatFloat(row.TriageSeconds),
		formatFloat(row.EndToEndSeconds),
		strconv.FormatBool(row.ProfileRedacted),
		v.AppVersion,
		v.RulesetVersion,
		v.ModelVersion,
		v.SchemaVersion,
	}
}

func jsonList(xs []string) string {
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 3, 64)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
