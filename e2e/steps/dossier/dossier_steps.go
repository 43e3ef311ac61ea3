package dossier

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	ResponseContains(field string) bool
}

// RegisterSteps registers CPF lookup steps and record assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &dossierSteps{tc: tc}

	ctx.Step(`^I look up CPF "([^"]*)"$`, steps.lookUp)
	ctx.Step(`^I look up CPF "([^"]*)" with request id "([^"]*)"$`, steps.lookUpWithRequestID)
	ctx.Step(`^the record should list phones "([^"]*)"$`, steps.phonesShouldBe)
	ctx.Step(`^the record should report no unavailable branches$`, steps.noUnavailable)
	ctx.Step(`^the record should report branch "([^"]*)" unavailable$`, steps.branchUnavailable)
}

type dossierSteps struct {
	tc TestContext
}

func (s *dossierSteps) lookUp(ctx context.Context, cpf string) error {
	return s.tc.POST("/consulta/cpf", map[string]string{"cpf": cpf}, nil)
}

func (s *dossierSteps) lookUpWithRequestID(ctx context.Context, cpf, requestID string) error {
	return s.tc.POST("/consulta/cpf", map[string]string{"cpf": cpf}, map[string]string{
		"X-Request-ID": requestID,
	})
}

func (s *dossierSteps) phonesShouldBe(ctx context.Context, csv string) error {
	v, err := s.tc.GetResponseField("contatos.telefones")
	if err != nil {
		return err
	}
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("contatos.telefones is not a list: %v", v)
	}
	got := make([]string, 0, len(list))
	for _, p := range list {
		got = append(got, fmt.Sprint(p))
	}
	if want := strings.Join(strings.Split(csv, ","), ","); strings.Join(got, ",") != want {
		return fmt.Errorf("expected phones %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

func (s *dossierSteps) noUnavailable(ctx context.Context) error {
	if s.tc.ResponseContains("indisponiveis") {
		v, _ := s.tc.GetResponseField("indisponiveis")
		return fmt.Errorf("expected a complete record, unavailable: %v", v)
	}
	return nil
}

func (s *dossierSteps) branchUnavailable(ctx context.Context, branch string) error {
	v, err := s.tc.GetResponseField("indisponiveis")
	if err != nil {
		return err
	}
	list, _ := v.([]interface{})
	for _, b := range list {
		if b == branch {
			return nil
		}
	}
	return fmt.Errorf("branch %s not reported unavailable in %v", branch, list)
}
