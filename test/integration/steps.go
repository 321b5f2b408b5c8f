package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/pawguardian/pkg/identity"
	"github.com/doodlesbykumbi/pawguardian/pkg/model"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/endpoints"
)

// testTokenKey signs bearer tokens for servers started with token checks
const testTokenKey = "integration-token-key"

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	instance     *ServerInstance
	response     *http.Response
	responseBody []byte
	authToken    string
	lastRun      *monitor.Report
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.instance != nil {
			s.instance.Stop()
			s.instance = nil
		}
		return ctx, err
	})

	// Server steps
	sc.Step(`^a PawGuardian server where the observer reports:$`, s.aServerWhereTheObserverReports)
	sc.Step(`^a PawGuardian server requiring API tokens where the observer reports:$`, s.aServerRequiringTokensWhereTheObserverReports)
	sc.Step(`^I hold an API token for "([^"]*)"$`, s.iHoldAnAPITokenFor)

	// Run steps
	sc.Step(`^I start a run on scenario "([^"]*)" at (\d+)°C$`, s.iStartARun)
	sc.Step(`^I start a run on scenario "([^"]*)" at (\d+)°C for a "([^"]*)"$`, s.iStartARunForBreed)
	sc.Step(`^I fetch the last run$`, s.iFetchTheLastRun)
	sc.Step(`^I open the report page of the last run$`, s.iOpenTheReportPage)
	sc.Step(`^I list the runs$`, s.iListTheRuns)
	sc.Step(`^I request "([^"]*)"$`, s.iRequest)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, s.theResponseBodyShouldContain)
	sc.Step(`^the run outcome should be "([^"]*)"$`, s.theRunOutcomeShouldBe)
	sc.Step(`^the run actions should be "([^"]*)"$`, s.theRunActionsShouldBe)
	sc.Step(`^the run should have no actions$`, s.theRunShouldHaveNoActions)
	sc.Step(`^the run list should include the last run$`, s.theRunListShouldIncludeTheLastRun)

	// Database steps
	sc.Step(`^the database should hold the last run with (\d+) actions?$`, s.theDatabaseShouldHoldTheLastRun)
}

// Server steps

func (s *StepsContext) startServer(cfg ServerConfig) error {
	instance, err := StartServer(s.tc, cfg)
	if err != nil {
		return err
	}
	s.instance = instance
	return nil
}

func (s *StepsContext) aServerWhereTheObserverReports(observation *godog.DocString) error {
	return s.startServer(ServerConfig{Observation: observation.Content})
}

func (s *StepsContext) aServerRequiringTokensWhereTheObserverReports(observation *godog.DocString) error {
	return s.startServer(ServerConfig{Observation: observation.Content, APITokenKey: testTokenKey})
}

func (s *StepsContext) iHoldAnAPITokenFor(subject string) error {
	tok, err := identity.Issue([]byte(testTokenKey), subject, time.Hour, time.Now())
	if err != nil {
		return err
	}
	s.authToken = tok
	return nil
}

// Run steps

func (s *StepsContext) startRun(body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, s.instance.ServerURL+"/api/runs", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}
	if err := s.do(req); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusCreated {
		var report monitor.Report
		if err := json.Unmarshal(s.responseBody, &report); err != nil {
			return fmt.Errorf("failed to decode report: %w", err)
		}
		s.lastRun = &report
	}
	return nil
}

func (s *StepsContext) iStartARun(key string, temp int) error {
	return s.startRun(map[string]any{"scenario": key, "car_temp": temp})
}

func (s *StepsContext) iStartARunForBreed(key string, temp int, breed string) error {
	return s.startRun(map[string]any{
		"scenario": key,
		"car_temp": temp,
		"pet": map[string]any{
			"name":        "Mochi",
			"breed":       breed,
			"age":         3,
			"weight":      8,
			"sensitivity": 5,
		},
	})
}

func (s *StepsContext) requireLastRun() error {
	if s.lastRun == nil {
		return fmt.Errorf("no run has been started successfully")
	}
	return nil
}

func (s *StepsContext) iFetchTheLastRun() error {
	if err := s.requireLastRun(); err != nil {
		return err
	}
	return s.iRequest("/api/runs/" + s.lastRun.ID)
}

func (s *StepsContext) iOpenTheReportPage() error {
	if err := s.requireLastRun(); err != nil {
		return err
	}
	return s.iRequest("/runs/" + s.lastRun.ID)
}

func (s *StepsContext) iListTheRuns() error {
	return s.iRequest("/api/runs?limit=100")
}

func (s *StepsContext) iRequest(path string) error {
	req, err := http.NewRequest(http.MethodGet, s.instance.ServerURL+path, nil)
	if err != nil {
		return err
	}
	return s.do(req)
}

func (s *StepsContext) do(req *http.Request) error {
	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.response = resp
	s.responseBody = body
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), text) {
		return fmt.Errorf("expected body to contain %q, got %s", text, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) currentReport() (*monitor.Report, error) {
	var report monitor.Report
	if err := json.Unmarshal(s.responseBody, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

func (s *StepsContext) theRunOutcomeShouldBe(expected string) error {
	report, err := s.currentReport()
	if err != nil {
		return err
	}
	if report.Outcome.String() != expected {
		return fmt.Errorf("expected outcome %q, got %q (error: %s)", expected, report.Outcome, report.Error)
	}
	return nil
}

func (s *StepsContext) theRunActionsShouldBe(expected string) error {
	report, err := s.currentReport()
	if err != nil {
		return err
	}
	names := make([]string, len(report.Actions))
	for i, a := range report.Actions {
		names[i] = a.Name
	}
	if got := strings.Join(names, ","); got != expected {
		return fmt.Errorf("expected actions %q, got %q", expected, got)
	}
	return nil
}

func (s *StepsContext) theRunShouldHaveNoActions() error {
	return s.theRunActionsShouldBe("")
}

func (s *StepsContext) theRunListShouldIncludeTheLastRun() error {
	if err := s.requireLastRun(); err != nil {
		return err
	}
	var list endpoints.RunsResponse
	if err := json.Unmarshal(s.responseBody, &list); err != nil {
		return fmt.Errorf("failed to decode run list: %w", err)
	}
	for _, r := range list.Runs {
		if r.ID == s.lastRun.ID {
			return nil
		}
	}
	return fmt.Errorf("run %s not in list of %d (total %d)", s.lastRun.ID, len(list.Runs), list.Total)
}

// Database steps

func (s *StepsContext) theDatabaseShouldHoldTheLastRun(actions int) error {
	if err := s.requireLastRun(); err != nil {
		return err
	}

	var run model.Run
	if err := s.tc.DB.Preload("Actions").Where("id = ?", s.lastRun.ID).First(&run).Error; err != nil {
		return fmt.Errorf("run %s not stored: %w", s.lastRun.ID, err)
	}
	if run.Outcome != s.lastRun.Outcome.String() {
		return fmt.Errorf("stored outcome %q, reported %q", run.Outcome, s.lastRun.Outcome)
	}
	if len(run.Actions) != actions {
		return fmt.Errorf("expected %d stored actions, got %d", actions, len(run.Actions))
	}
	return nil
}
