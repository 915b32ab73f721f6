// Package attempts limits how often one citizen identifier may submit within
// a sliding window.
package attempts

import "time"

// Result reports the outcome of one attempt.
type Result struct {
	Allowed bool
	Count   int
	Limit   int
	ResetAt time.Time
}
