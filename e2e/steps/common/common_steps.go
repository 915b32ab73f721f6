package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(key string) string
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be null$`, steps.fieldShouldBeNull)
	ctx.Step(`^the response field "([^"]*)" should be present$`, steps.fieldShouldBePresent)
	ctx.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, steps.headerShouldBe)
	ctx.Step(`^the response body should contain "([^"]*)"$`, steps.bodyShouldContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/ops/health", nil); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("health check returned %d: %s", s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNull(ctx context.Context, field string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		// Omitted fields count as null.
		return nil
	}
	if v != nil {
		return fmt.Errorf("expected %s to be null, got %v", field, v)
	}
	return nil
}

func (s *commonSteps) fieldShouldBePresent(ctx context.Context, field string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("expected %s to be set", field)
	}
	return nil
}

func (s *commonSteps) headerShouldBe(ctx context.Context, key, expected string) error {
	if got := s.tc.GetLastResponseHeader(key); got != expected {
		return fmt.Errorf("expected header %s=%q, got %q", key, expected, got)
	}
	return nil
}

func (s *commonSteps) bodyShouldContain(ctx context.Context, fragment string) error {
	if !strings.Contains(string(s.tc.GetLastResponseBody()), fragment) {
		return fmt.Errorf("response body does not contain %q", fragment)
	}
	return nil
}
