package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Case stores, attempt limiters and
// audit stores return these (optionally wrapped) so services can translate
// them into domain errors.
//
//   - ErrNotFound: case or event does not exist in the store
//   - ErrConflict: a case with the same identifier already exists
//   - ErrInvalidState: case is in the wrong state for the requested operation
//   - ErrUnavailable: backing store or classifier artifact is unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
