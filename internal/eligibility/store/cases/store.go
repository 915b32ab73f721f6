// Package cases persists adjudicated cases.
//
// Error contract:
//   - ErrNotFound (sentinel) when the case does not exist
//   - ErrConflict (sentinel) when a case id is reused
//   - errors returned by an Update callback are passed through unchanged
//   - wrapped errors for infrastructure failures
package cases

import (
	"time"

	"saral/internal/eligibility/models"
)

// Filter narrows a listing. Zero values match everything. Results are
// ordered by created_at ascending.
type Filter struct {
	SchemeCode string
	Status     models.DecisionStatus
	Arm        models.Arm
	Since      *time.Time
	Limit      int
}

func (f Filter) matches(c *models.Case) bool {
	if f.SchemeCode != "" && c.SchemeCode != f.SchemeCode {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Arm != "" && c.Assignment.Arm != f.Arm {
		return false
	}
	if f.Since != nil && c.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// StatusCount is one row of the summary grouped by scheme and status.
type StatusCount struct {
	SchemeCode string                `json:"scheme_code"`
	Status     models.DecisionStatus `json:"status"`
	Count      int                   `json:"count"`
}
