package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/pawguardian/pkg/audit"
	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// ErrInvalidRequest is returned when a run request fails validation
var ErrInvalidRequest = errors.New("invalid run request")

// Car temperature bounds of the simulation, in °C
const (
	MinCarTemp     = 15
	MaxCarTemp     = 45
	DefaultCarTemp = 26
)

// Executor runs a single tool call. *tools.Toolbox implements it.
type Executor interface {
	Execute(ctx context.Context, call llm.FunctionCall) tools.Result
}

// Request starts a run
type Request struct {
	ScenarioKey string      `json:"scenario"`
	CarTemp     int         `json:"car_temp"`
	Pet         pet.Profile `json:"pet"`
	// ClientIP is recorded in the audit trail only
	ClientIP string `json:"-"`
}

// Observation is the Observer agent's verdict on the video
type Observation struct {
	SubjectDetected bool     `json:"subject_detected"`
	AnxietyLevel    string   `json:"anxiety_level"`
	Observations    string   `json:"observations"`
	StressSigns     []string `json:"stress_signs"`
}

// ParseObservation decodes the observer's answer
func ParseObservation(text string) (*Observation, error) {
	var obs Observation
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &obs); err != nil {
		return nil, fmt.Errorf("failed to parse observation: %w", err)
	}
	if !obs.SubjectDetected {
		obs.AnxietyLevel = AnxietyNone
	}
	return &obs, nil
}

// Report is the record of one run
type Report struct {
	ID          string            `json:"id"`
	Scenario    scenario.Scenario `json:"scenario"`
	CarTemp     int               `json:"car_temp"`
	Pet         pet.Profile       `json:"pet"`
	PetContext  string            `json:"pet_context"`
	Observation *Observation      `json:"observation,omitempty"`
	Thought     string            `json:"thought,omitempty"`
	Actions     []tools.Result    `json:"actions"`
	FinalReport string            `json:"final_report,omitempty"`
	Outcome     Outcome           `json:"outcome"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Duration is how long the run took, zero while it is still going
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Monitor wires the agents, the toolbox and persistence together
type Monitor struct {
	Catalog  *scenario.Catalog
	Observer llm.Observer
	Agent    llm.Agent
	Executor Executor
	// Store is optional; runs are not persisted without it
	Store store.RunsStore

	NewID func() string
	Now   func() time.Time

	catalogMu sync.RWMutex
}

// SetCatalog swaps the scenario catalog, e.g. after a config reload
func (m *Monitor) SetCatalog(c *scenario.Catalog) {
	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()
	m.Catalog = c
}

// Scenarios returns the current scenario catalog
func (m *Monitor) Scenarios() *scenario.Catalog {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()
	return m.Catalog
}

func (m *Monitor) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

// Validate checks a request and resolves its scenario
func (m *Monitor) Validate(req Request) (scenario.Scenario, pet.Profile, error) {
	sc, err := m.Scenarios().Lookup(req.ScenarioKey)
	if err != nil {
		return scenario.Scenario{}, pet.Profile{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.CarTemp < MinCarTemp || req.CarTemp > MaxCarTemp {
		return scenario.Scenario{}, pet.Profile{}, fmt.Errorf("%w: car temperature %d outside %d-%d", ErrInvalidRequest, req.CarTemp, MinCarTemp, MaxCarTemp)
	}
	p := req.Pet.Normalize()
	if err := p.Validate(); err != nil {
		return scenario.Scenario{}, pet.Profile{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return sc, p, nil
}

// Run executes the pipeline for a request. Only invalid requests return an
// error; agent failures end the run with OutcomeFailed and are persisted.
func (m *Monitor) Run(ctx context.Context, req Request) (*Report, error) {
	sc, p, err := m.Validate(req)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         m.newID(),
		Scenario:   sc,
		CarTemp:    req.CarTemp,
		Pet:        p,
		PetContext: p.Context(),
		Actions:    []tools.Result{},
		Outcome:    OutcomePending,
		StartedAt:  m.now(),
	}

	if err := m.run(ctx, report); err != nil {
		report.Outcome = OutcomeFailed
		report.Error = err.Error()
		log.Printf("monitor: run %s failed: %v", report.ID, err)
	}
	report.FinishedAt = m.now()

	m.persist(ctx, report)

	errMsg := report.Error
	event := audit.RunEvent{
		RunID:        report.ID,
		ClientIP:     req.ClientIP,
		Scenario:     sc.Key,
		PetName:      p.Name,
		CarTemp:      report.CarTemp,
		Outcome:      report.Outcome.String(),
		Actions:      len(report.Actions),
		ErrorMessage: errMsg,
	}
	if report.Observation != nil {
		event.AnxietyLevel = report.Observation.AnxietyLevel
	}
	audit.LogContext(context.WithoutCancel(ctx), event)

	return report, nil
}

func (m *Monitor) run(ctx context.Context, report *Report) error {
	text, err := m.Observer.Observe(ctx, report.Scenario.URI, scenario.VideoMIMEType, ObserverPrompt(report.PetContext))
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	obs, err := ParseObservation(text)
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	report.Observation = obs

	if !obs.SubjectDetected {
		report.Outcome = OutcomeVacant
		report.FinalReport = VacantReport
		return nil
	}

	status := Status{
		Observation:    *obs,
		CarTemp:        report.CarTemp,
		Brachycephalic: report.Pet.IsBrachycephalic(),
		PetContext:     report.PetContext,
	}
	message, err := StatusMessage(status)
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}

	chat := m.Agent.StartChat(SystemPrompt, tools.Declarations())
	reply, err := chat.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}
	report.Thought = reply.Text

	if len(reply.Calls) == 0 {
		report.Outcome = OutcomeSafe
		report.FinalReport = reply.Text
		if report.FinalReport == "" {
			report.FinalReport = SafeReport
		}
		return nil
	}

	results := make([]llm.FunctionResult, 0, len(reply.Calls))
	for _, call := range reply.Calls {
		res := m.execute(ctx, report, call)
		report.Actions = append(report.Actions, res)
		results = append(results, res.FunctionResult())
	}

	final, err := chat.SendResults(ctx, results)
	if err != nil {
		return fmt.Errorf("final report: %w", err)
	}
	report.FinalReport = final.Text
	report.Outcome = OutcomeIntervened
	return nil
}

// ResultRefused is returned to the agent for interventions without a pet
const ResultRefused = "エラー: ペットが検知されていないため、介入は許可されていません。"

func (m *Monitor) execute(ctx context.Context, report *Report, call llm.FunctionCall) tools.Result {
	var res tools.Result
	if report.Observation == nil || !report.Observation.SubjectDetected {
		res = tools.Result{Name: call.Name, Args: call.Args, Output: ResultRefused}
	} else {
		res = m.Executor.Execute(ctx, call)
	}

	event := audit.InterventionEvent{
		RunID:     report.ID,
		Tool:      res.Name,
		Target:    res.Target,
		Reference: res.Reference,
		Success:   res.Success,
	}
	if !res.Success {
		event.ErrorMessage = res.Output
	}
	audit.LogContext(context.WithoutCancel(ctx), event)
	return res
}

func (m *Monitor) persist(ctx context.Context, report *Report) {
	if m.Store == nil {
		return
	}
	run, err := ToModel(report)
	if err != nil {
		log.Printf("monitor: failed to encode run %s: %v", report.ID, err)
		return
	}
	// Saved even when the request context is already cancelled.
	if err := m.Store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("monitor: failed to save run %s: %v", report.ID, err)
	}
}

// Fetch loads a stored run
func (m *Monitor) Fetch(ctx context.Context, id string) (*Report, error) {
	if m.Store == nil {
		return nil, store.ErrRunNotFound
	}
	run, err := m.Store.FetchRun(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := FromModel(run)
	if err != nil {
		return nil, err
	}
	m.label(report)
	return report, nil
}

// List returns stored runs newest first, without actions
func (m *Monitor) List(ctx context.Context, limit, offset int) ([]*Report, int64, error) {
	if m.Store == nil {
		return []*Report{}, 0, nil
	}
	runs, err := m.Store.ListRuns(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.Store.CountRuns(ctx)
	if err != nil {
		return nil, 0, err
	}

	reports := make([]*Report, 0, len(runs))
	for i := range runs {
		report, err := FromModel(&runs[i])
		if err != nil {
			return nil, 0, err
		}
		m.label(report)
		reports = append(reports, report)
	}
	return reports, total, nil
}

func (m *Monitor) label(report *Report) {
	catalog := m.Scenarios()
	if catalog == nil {
		return
	}
	if sc, err := catalog.Lookup(report.Scenario.Key); err == nil && sc.URI == report.Scenario.URI {
		report.Scenario = sc
	}
}
