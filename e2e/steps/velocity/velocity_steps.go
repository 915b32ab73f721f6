package velocity

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetLastResponseStatus() int
	CitizenID(name string) string
}

// RegisterSteps registers submission velocity steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &velocitySteps{tc: tc}

	ctx.Step(`^citizen "([^"]*)" submits (\d+) applications for "([^"]*)"$`, steps.submitN)
	ctx.Step(`^the (\d+)(?:st|nd|rd|th) submission should return (\d+)$`, steps.nthShouldReturn)
}

type velocitySteps struct {
	tc       TestContext
	statuses []int
}

func (s *velocitySteps) submitN(ctx context.Context, citizen string, n int, scheme string) error {
	s.statuses = s.statuses[:0]
	for i := 0; i < n; i++ {
		err := s.tc.POST("/cases", map[string]any{
			"citizen_hash": s.tc.CitizenID(citizen),
			"scheme_code":  scheme,
			"source":       "e2e",
			"profile":      map[string]any{"age": 30, "gender": "M", "income": 100000, "income_period": "annual"},
		})
		if err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *velocitySteps) nthShouldReturn(ctx context.Context, n, expected int) error {
	if n < 1 || n > len(s.statuses) {
		return fmt.Errorf("only %d submissions were made", len(s.statuses))
	}
	if got := s.statuses[n-1]; got != expected {
		return fmt.Errorf("submission %d returned %d, expected %d", n, got, expected)
	}
	return nil
}
