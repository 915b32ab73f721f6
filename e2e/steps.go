package e2e

import (
	"github.com/cucumber/godog"

	"saral/e2e/steps/cases"
	"saral/e2e/steps/common"
	"saral/e2e/steps/velocity"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(tc.reset)

	common.RegisterSteps(ctx, tc)
	cases.RegisterSteps(ctx, tc)
	velocity.RegisterSteps(ctx, tc)
}
