package e2e

import (
	"github.com/cucumber/godog"

	"dossier/e2e/steps/common"
	"dossier/e2e/steps/dossier"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	dossier.RegisterSteps(ctx, tc)
}
