package cases

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(key string) string
	CitizenID(name string) string
	Set(key, value string)
	Get(key string) string
}

// RegisterSteps registers case submission and review steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &caseSteps{tc: tc}

	ctx.Step(`^citizen "([^"]*)" applies for "([^"]*)" aged (\d+) with annual income (\d+)$`, steps.applyWithIncome)
	ctx.Step(`^citizen "([^"]*)" applies for "([^"]*)" aged (\d+) without declaring income$`, steps.applyWithoutIncome)
	ctx.Step(`^citizen "([^"]*)" applies for "([^"]*)" aged (\d+) with annual income (\d+) in a rural household$`, steps.applyRural)
	ctx.Step(`^I save the case id$`, steps.saveCaseID)
	ctx.Step(`^I fetch the saved case$`, steps.fetchSavedCase)
	ctx.Step(`^operator "([^"]*)" records "([^"]*)" with reason "([^"]*)" on the saved case$`, steps.dispose)
	ctx.Step(`^I list cases for scheme "([^"]*)"$`, steps.listForScheme)
	ctx.Step(`^I export cases for scheme "([^"]*)"$`, steps.exportForScheme)

	ctx.Step(`^the case status should be one of "([^"]*)"$`, steps.statusShouldBeOneOf)
	ctx.Step(`^the case should carry a document checklist$`, steps.shouldCarryDocuments)
	ctx.Step(`^the risk fields should follow the arm$`, steps.riskFieldsFollowArm)
	ctx.Step(`^the saved case should be listed$`, steps.savedCaseListed)
	ctx.Step(`^the export should include the saved case$`, steps.exportIncludesSavedCase)
}

type caseSteps struct {
	tc TestContext
}

func (s *caseSteps) submit(citizen, scheme string, profile map[string]any) error {
	return s.tc.POST("/cases", map[string]any{
		"citizen_hash": s.tc.CitizenID(citizen),
		"scheme_code":  scheme,
		"source":       "e2e",
		"locale":       "en",
		"profile":      profile,
	})
}

func (s *caseSteps) applyWithIncome(ctx context.Context, citizen, scheme string, age, income int) error {
	return s.submit(citizen, scheme, map[string]any{
		"age":           age,
		"gender":        "F",
		"income":        income,
		"income_period": "annual",
	})
}

func (s *caseSteps) applyWithoutIncome(ctx context.Context, citizen, scheme string, age int) error {
	return s.submit(citizen, scheme, map[string]any{"age": age, "gender": "F"})
}

func (s *caseSteps) applyRural(ctx context.Context, citizen, scheme string, age, income int) error {
	return s.submit(citizen, scheme, map[string]any{
		"age":           age,
		"gender":        "F",
		"income":        income,
		"income_period": "annual",
		"rural":         true,
	})
}

func (s *caseSteps) saveCaseID(ctx context.Context) error {
	v, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	caseID, ok := v.(string)
	if !ok || caseID == "" {
		return fmt.Errorf("response id is not a string: %v", v)
	}
	s.tc.Set("case_id", caseID)
	return nil
}

func (s *caseSteps) fetchSavedCase(ctx context.Context) error {
	return s.tc.GET("/cases/"+s.tc.Get("case_id"), nil)
}

func (s *caseSteps) dispose(ctx context.Context, operator, action, reason string) error {
	return s.tc.POST("/cases/"+s.tc.Get("case_id")+"/disposition", map[string]any{
		"final_action": action,
		"reason_code":  reason,
		"operator_id":  operator,
	})
}

func (s *caseSteps) listForScheme(ctx context.Context, scheme string) error {
	return s.tc.GET("/cases?scheme="+url.QueryEscape(scheme), nil)
}

func (s *caseSteps) exportForScheme(ctx context.Context, scheme string) error {
	return s.tc.GET("/cases/export.csv?scheme="+url.QueryEscape(scheme), nil)
}

func (s *caseSteps) statusShouldBeOneOf(ctx context.Context, statuses string) error {
	v, err := s.tc.GetResponseField("status")
	if err != nil {
		return err
	}
	for _, want := range strings.Split(statuses, ",") {
		if fmt.Sprint(v) == strings.TrimSpace(want) {
			return nil
		}
	}
	return fmt.Errorf("status %v not in %s", v, statuses)
}

func (s *caseSteps) shouldCarryDocuments(ctx context.Context) error {
	v, err := s.tc.GetResponseField("documents")
	if err != nil {
		return err
	}
	docs, ok := v.([]any)
	if !ok || len(docs) == 0 {
		return fmt.Errorf("expected a non-empty document checklist, got %v", v)
	}
	return nil
}

// riskFieldsFollowArm checks blinding: CONTROL never sees model output.
func (s *caseSteps) riskFieldsFollowArm(ctx context.Context) error {
	arm, err := s.tc.GetResponseField("arm")
	if err != nil {
		return err
	}
	var body map[string]any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return err
	}
	switch arm {
	case "CONTROL":
		for _, field := range []string{"risk_score", "risk_band", "top_reasons", "review_confidence"} {
			if v, ok := body[field]; ok && v != nil {
				return fmt.Errorf("CONTROL case exposes %s=%v", field, v)
			}
		}
		if body["decision_support_shown"] != false {
			return fmt.Errorf("CONTROL case shows decision support")
		}
	case "TREATMENT":
		if body["decision_support_shown"] != true {
			return fmt.Errorf("TREATMENT case hides decision support")
		}
	default:
		return fmt.Errorf("unexpected arm %v", arm)
	}
	return nil
}

func (s *caseSteps) savedCaseListed(ctx context.Context) error {
	var body struct {
		Cases []struct {
			ID string `json:"id"`
		} `json:"cases"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return err
	}
	want := s.tc.Get("case_id")
	for _, c := range body.Cases {
		if c.ID == want {
			return nil
		}
	}
	return fmt.Errorf("case %s not in dashboard of %d cases", want, len(body.Cases))
}

func (s *caseSteps) exportIncludesSavedCase(ctx context.Context) error {
	if ct := s.tc.GetLastResponseHeader("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	records, err := csv.NewReader(strings.NewReader(string(s.tc.GetLastResponseBody()))).ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 || records[0][0] != "case_id" {
		return fmt.Errorf("export is missing its header row")
	}
	want := s.tc.Get("case_id")
	for _, rec := range records[1:] {
		if rec[0] == want {
			return nil
		}
	}
	return fmt.Errorf("case %s not in export", want)
}
