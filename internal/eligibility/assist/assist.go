// Package assist rates how reviewable a submission is from its structure and
// free text alone. It never reads the profile and never calls a model.
package assist

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Scoring constants.
const (
	clarityWithoutText = 0.3
	clarityFullLength  = 80
	clarityHintBonus   = 0.2
	completenessWeight = 0.6
	clarityWeight      = 0.4
)

// LowConfidenceThreshold is the review confidence below which a submission
// is flagged for a closer look.
const LowConfidenceThreshold = 0.5

// FlagLowConfidence is the flag reason set when AuditFlag is true.
const FlagLowConfidence = "low_review_confidence"

var hintWords = []string{"apply", "status", "rejected", "help", "eligibility", "document"}

// Input is the structural part of a submission.
type Input struct {
	SchemeCode  string
	CitizenHash string
	Locale      string
	MessageText string
}

// Result is the assistive rating of one submission.
type Result struct {
	ReviewConfidence float64 `json:"review_confidence"`
	Completeness     float64 `json:"completeness"`
	Clarity          float64 `json:"clarity"`
	AuditFlag        bool    `json:"audit_flag"`
	FlagReason       string  `json:"flag_reason"`
}

// Completeness is the share of scheme code, citizen hash and locale that are
// present and non-blank.
func Completeness(in Input) float64 {
	fields := []string{in.SchemeCode, in.CitizenHash, in.Locale}
	have := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			have++
		}
	}
	return round2(float64(have) / float64(len(fields)))
}

// Clarity grows with message length up to 80 characters, plus a bonus when
// the message mentions an intent-like keyword. No message scores 0.3.
func Clarity(text string) float64 {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return clarityWithoutText
	}
	score := clamp01(float64(utf8.RuneCountInString(t)) / clarityFullLength)
	for _, w := range hintWords {
		if strings.Contains(t, w) {
			score += clarityHintBonus
			break
		}
	}
	return round2(clamp01(score))
}

// Combined weighs completeness 0.6 and clarity 0.4.
func Combined(completeness, clarity float64) float64 {
	return round2(clamp01(completenessWeight*completeness + clarityWeight*clarity))
}

// Score rates a submission.
func Score(in Input) Result {
	completeness := Completeness(in)
	clarity := Clarity(in.MessageText)
	r := Result{
		ReviewConfidence: Combined(completeness, clarity),
		Completeness:     completeness,
		Clarity:          clarity,
	}
	if r.ReviewConfidence < LowConfidenceThreshold {
		r.AuditFlag = true
		r.FlagReason = FlagLowConfidence
	}
	return r
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
