package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"saral/internal/eligibility/assist"
	"saral/internal/eligibility/models"
	"saral/internal/eligibility/service"
	id "saral/pkg/domain"
	dErrors "saral/pkg/domain-errors"
)

const (
	maxAge            = 120
	maxEducationYears = 30
	maxLocaleLen      = 16
	maxSessionIDLen   = 128
	maxCommentLen     = 500
	maxMessageLen     = 2000
)

// maxIncome is in rupees, well above any scheme cap and far from int64
// overflow once annualized.
const maxIncome = 1_000_000_000_000

// AdjudicateRequest is the HTTP request body for POST /cases.
type AdjudicateRequest struct {
	CitizenHash         string         `json:"citizen_hash"`
	SchemeCode          string         `json:"scheme_code"`
	Source              string         `json:"source"`
	Locale              string         `json:"locale"`
	SessionID           string         `json:"session_id"`
	MetaDurationSeconds int64          `json:"meta_duration_seconds"`
	MessageText         string         `json:"message_text"`
	Profile             ProfileRequest `json:"profile"`

	// Parsed values (populated by Validate)
	parsedCitizen id.CitizenID
	parsedSource  id.Source
}

// ProfileRequest carries the citizen profile. Income and income_period are
// optional; a missing income routes the case to document collection.
type ProfileRequest struct {
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Income         *int64 `json:"income"`
	IncomePeriod   string `json:"income_period"`
	EducationYears int    `json:"education_years"`
	Rural          bool   `json:"rural"`
	Marginalized   bool   `json:"marginalized"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AdjudicateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Locale) > maxLocaleLen {
		return dErrors.New(dErrors.CodeValidation, "locale must be at most 16 characters")
	}
	if len(r.SessionID) > maxSessionIDLen {
		return dErrors.New(dErrors.CodeValidation, "session_id must be at most 128 characters")
	}
	if len(r.MessageText) > maxMessageLen {
		return dErrors.New(dErrors.CodeValidation, "message_text must be at most 2000 characters")
	}

	citizen, err := id.ParseCitizenID(strings.TrimSpace(r.CitizenHash))
	if err != nil {
		return err
	}
	r.parsedCitizen = citizen

	r.SchemeCode = strings.ToUpper(strings.TrimSpace(r.SchemeCode))
	if r.SchemeCode == "" {
		return dErrors.New(dErrors.CodeValidation, "scheme_code is required")
	}
	r.parsedSource = id.NormalizeSource(r.Source)
	r.Locale = strings.TrimSpace(r.Locale)
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.MessageText = strings.TrimSpace(r.MessageText)
	if r.MetaDurationSeconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "meta_duration_seconds must not be negative")
	}

	return r.Profile.validate()
}

func (p *ProfileRequest) validate() error {
	if p.Age < 0 || p.Age > maxAge {
		return dErrors.New(dErrors.CodeValidation, "profile.age must be between 0 and 120")
	}
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	if !models.Gender(p.Gender).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "profile.gender must be one of M, F, O")
	}
	if p.Income != nil && *p.Income < 0 {
		return dErrors.New(dErrors.CodeValidation, "profile.income must not be negative")
	}
	if p.Income != nil && *p.Income > maxIncome {
		return dErrors.New(dErrors.CodeValidation, "profile.income is out of range")
	}
	if p.EducationYears < 0 || p.EducationYears > maxEducationYears {
		return dErrors.New(dErrors.CodeValidation, "profile.education_years must be between 0 and 30")
	}
	// An absent period is passed through; the rule engine reports it as missing.
	p.IncomePeriod = strings.ToLower(strings.TrimSpace(p.IncomePeriod))
	return nil
}

// Command builds the service command. channel comes from request metadata.
func (r *AdjudicateRequest) Command(channel string) service.AdjudicateCommand {
	var income *int64
	if r.Profile.Income != nil {
		income = models.Int64(*r.Profile.Income)
	}
	return service.AdjudicateCommand{
		CitizenID:           r.parsedCitizen,
		SchemeCode:          r.SchemeCode,
		Source:              r.parsedSource,
		Locale:              r.Locale,
		SessionID:           r.SessionID,
		Channel:             channel,
		MetaDurationSeconds: r.MetaDurationSeconds,
		MessageText:         r.MessageText,
		Profile: models.Profile{
			Age:            r.Profile.Age,
			Gender:         models.Gender(r.Profile.Gender),
			Income:         income,
			IncomePeriod:   models.IncomePeriod(r.Profile.IncomePeriod),
			EducationYears: r.Profile.EducationYears,
			Rural:          r.Profile.Rural,
			Marginalized:   r.Profile.Marginalized,
		},
	}
}

// AssistRequest is the HTTP request body for POST /ai/assist. Every field is
// optional; missing ones lower the completeness score.
type AssistRequest struct {
	SchemeCode  string `json:"scheme_code"`
	CitizenHash string `json:"citizen_hash"`
	Locale      string `json:"locale"`
	MessageText string `json:"message_text"`
}

// Validate implements the Validatable interface.
func (r *AssistRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.MessageText) > maxMessageLen {
		return dErrors.New(dErrors.CodeValidation, "message_text must be at most 2000 characters")
	}
	if len(r.Locale) > maxLocaleLen {
		return dErrors.New(dErrors.CodeValidation, "locale must be at most 16 characters")
	}
	r.SchemeCode = strings.ToUpper(strings.TrimSpace(r.SchemeCode))
	r.CitizenHash = strings.TrimSpace(r.CitizenHash)
	r.Locale = strings.TrimSpace(r.Locale)
	return nil
}

// Input builds the assist input.
func (r *AssistRequest) Input() assist.Input {
	return assist.Input{
		SchemeCode:  r.SchemeCode,
		CitizenHash: r.CitizenHash,
		Locale:      r.Locale,
		MessageText: r.MessageText,
	}
}

// ClassifyRequest is the HTTP request body for POST /ai/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// Validate implements the Validatable interface.
func (r *ClassifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	if len(r.Text) > maxMessageLen {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 2000 characters")
	}
	return nil
}

// DispositionRequest is the HTTP request body for POST /cases/{id}/disposition.
type DispositionRequest struct {
	FinalAction string     `json:"final_action"`
	ReasonCode  string     `json:"reason_code"`
	OperatorID  string     `json:"operator_id"`
	OpenedAt    *time.Time `json:"opened_at"`
	Comment     string     `json:"comment"`
	Flagged     bool       `json:"flagged"`

	parsedAction   models.FinalAction
	parsedReason   models.ReasonCode
	parsedOperator id.OperatorID
}

// Validate validates and parses the request.
func (r *DispositionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Comment) > maxCommentLen {
		return dErrors.New(dErrors.CodeValidation, "comment must be at most 500 characters")
	}

	action, err := models.ParseFinalAction(strings.ToUpper(strings.TrimSpace(r.FinalAction)))
	if err != nil {
		return err
	}
	reason, err := models.ParseReasonCode(strings.ToUpper(strings.TrimSpace(r.ReasonCode)))
	if err != nil {
		return err
	}
	operator, err := id.ParseOperatorID(r.OperatorID)
	if err != nil {
		return err
	}
	r.parsedAction, r.parsedReason, r.parsedOperator = action, reason, operator
	r.Comment = strings.TrimSpace(r.Comment)
	return nil
}

// Command builds the service command for the given case.
func (r *DispositionRequest) Command(caseID id.CaseID) service.DisposeCommand {
	return service.DisposeCommand{
		CaseID: caseID,
		DispositionCommand: models.DispositionCommand{
			FinalAction: r.parsedAction,
			ReasonCode:  r.parsedReason,
			OperatorID:  r.parsedOperator,
			OpenedAt:    r.OpenedAt,
			Comment:     r.Comment,
			Flagged:     r.Flagged,
		},
	}
}

// parseCaseQuery reads scheme, status, arm and since from the query string.
func parseCaseQuery(q url.Values) (service.CaseQuery, error) {
	var out service.CaseQuery
	out.SchemeCode = strings.ToUpper(strings.TrimSpace(q.Get("scheme")))

	if raw := strings.ToUpper(strings.TrimSpace(q.Get("status"))); raw != "" {
		status := models.DecisionStatus(raw)
		switch status {
		case models.StatusNew, models.StatusInReview, models.StatusApproved, models.StatusRejected:
			out.Status = status
		default:
			return out, dErrors.New(dErrors.CodeValidation, "invalid status")
		}
	}
	if raw := strings.ToUpper(strings.TrimSpace(q.Get("arm"))); raw != "" {
		arm := models.Arm(raw)
		if !arm.IsValid() {
			return out, dErrors.New(dErrors.CodeValidation, "invalid arm")
		}
		out.Arm = arm
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := parseSince(raw)
		if err != nil {
			return out, err
		}
		out.Since = &since
	}
	return out, nil
}

func parseSince(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "since must be RFC3339 or YYYY-MM-DD")
}

func parseExportQuery(q url.Values) (service.ExportQuery, error) {
	base, err := parseCaseQuery(q)
	if err != nil {
		return service.ExportQuery{}, err
	}
	out := service.ExportQuery{CaseQuery: base}
	if raw := strings.TrimSpace(q.Get("include_control_model_fields")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return out, dErrors.New(dErrors.CodeValidation, "include_control_model_fields must be a boolean")
		}
		out.IncludeControlModelFields = include
	}
	if raw := strings.TrimSpace(q.Get("min_risk")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return out, dErrors.New(dErrors.CodeValidation, "min_risk must be between 0 and 1")
		}
		out.MinRisk = &v
	}
	return out, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be an integer")
	}
	return n, nil
}
