// Package domain holds the identifier primitives shared across modules.
// Construct them with the Parse functions at trust boundaries; direct casts
// bypass validation.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "saral/pkg/domain-errors"
)

// CaseID identifies an adjudicated case.
type CaseID uuid.UUID

// NewCaseID returns a fresh random case ID.
func NewCaseID() CaseID {
	return CaseID(uuid.New())
}

// ParseCaseID validates a case identifier from external input.
func ParseCaseID(s string) (CaseID, error) {
	if strings.TrimSpace(s) == "" {
		return CaseID{}, dErrors.New(dErrors.CodeValidation, "case id cannot be empty")
	}
	if len(s) > 64 {
		return CaseID{}, dErrors.New(dErrors.CodeValidation, "invalid case id")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return CaseID{}, dErrors.New(dErrors.CodeValidation, "invalid case id")
	}
	return CaseID(u), nil
}

func (id CaseID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id CaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// CitizenID is the pseudonymous citizen identifier supplied by the intake
// channel (a hash, never a raw national ID).
type CitizenID string

var citizenIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-$]{1,64}$`)

// ParseCitizenID enforces 1..64 characters of [A-Za-z0-9_-$].
func ParseCitizenID(s string) (CitizenID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "citizen_hash is required")
	}
	if !citizenIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "citizen_hash must be 1-64 characters of [A-Za-z0-9_-$]")
	}
	return CitizenID(s), nil
}

func (c CitizenID) String() string { return string(c) }

// OperatorID identifies the reviewer who disposed a case. Stored lower-cased.
type OperatorID string

// ParseOperatorID trims and lower-cases the operator identifier.
func ParseOperatorID(s string) (OperatorID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "operator_id is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeValidation, "operator_id must be at most 64 characters")
	}
	return OperatorID(s), nil
}

func (o OperatorID) String() string { return string(o) }
