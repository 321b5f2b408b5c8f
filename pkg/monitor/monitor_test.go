package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/pawguardian/pkg/audit"
	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/model"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

func init() {
	audit.SetEnabled(false)
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestMonitor(obs *MockObserver, agent llm.Agent, exec Executor, s store.RunsStore) *Monitor {
	return &Monitor{
		Catalog:  scenario.MustBuiltinCatalog(),
		Observer: obs,
		Agent:    agent,
		Executor: exec,
		Store:    s,
		NewID:    func() string { return "run-1" },
		Now:      func() time.Time { return fixedNow },
	}
}

func TestRunValidation(t *testing.T) {
	m := newTestMonitor(&MockObserver{}, RuleAgent{}, &MockExecutor{}, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown scenario", Request{ScenarioKey: "storm", CarTemp: 26, Pet: pet.Default()}},
		{"too cold", Request{ScenarioKey: "relax", CarTemp: 14, Pet: pet.Default()}},
		{"too hot", Request{ScenarioKey: "relax", CarTemp: 46, Pet: pet.Default()}},
		{"bad pet", Request{ScenarioKey: "relax", CarTemp: 26, Pet: pet.Profile{Name: "x", Age: 0, Weight: 10, Sensitivity: 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := m.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, report)
		})
	}
}

func TestRunVacant(t *testing.T) {
	obs := &MockObserver{}
	agent := &MockAgent{}
	st := &MockRunsStore{}
	obs.On("Observe", mock.Anything, "gs://paw-guardian-tokyo/Nothing.mp4", scenario.VideoMIMEType, mock.Anything).
		Return("```json\n{\"subject_detected\": false, \"anxiety_level\": \"Relax\", \"observations\": \"誰もいません\", \"stress_signs\": []}\n```", nil)
	st.On("SaveRun", mock.Anything, mock.MatchedBy(func(r *model.Run) bool {
		return r.ID == "run-1" && r.Outcome == "vacant" && !r.SubjectDetected && len(r.Actions) == 0
	})).Return(nil)

	m := newTestMonitor(obs, agent, &MockExecutor{}, st)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "nothing", CarTemp: 44, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeVacant, report.Outcome)
	assert.Equal(t, AnxietyNone, report.Observation.AnxietyLevel)
	assert.Equal(t, VacantReport, report.FinalReport)
	assert.Empty(t, report.Actions)
	agent.AssertNotCalled(t, "StartChat", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestRunSafe(t *testing.T) {
	obs := &MockObserver{}
	agent := &MockAgent{}
	chat := &MockChat{}
	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"subject_detected": true, "anxiety_level": "Relax", "observations": "静かに座っています", "stress_signs": []}`, nil)
	agent.On("StartChat", SystemPrompt, tools.Declarations()).Return(chat)
	chat.On("Send", mock.Anything, mock.MatchedBy(func(msg string) bool {
		s, err := ParseStatusMessage(msg)
		return err == nil && s.CarTemp == 26 && s.Observation.AnxietyLevel == AnxietyRelax
	})).Return(&llm.Reply{Text: "ペットは安全です。"}, nil)

	m := newTestMonitor(obs, agent, &MockExecutor{}, nil)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "relax", CarTemp: 26, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSafe, report.Outcome)
	assert.Equal(t, "ペットは安全です。", report.FinalReport)
	assert.Equal(t, fixedNow, report.StartedAt)
	chat.AssertNotCalled(t, "SendResults", mock.Anything, mock.Anything)
}

func TestRunIntervened(t *testing.T) {
	obs := &MockObserver{}
	agent := &MockAgent{}
	chat := &MockChat{}
	exec := &MockExecutor{}
	st := &MockRunsStore{}

	call := llm.FunctionCall{Name: tools.MakeEmergencyCall, Args: map[string]any{"message": "至急戻ってください"}}
	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"subject_detected": true, "anxiety_level": "High", "observations": "窓を引っかいています", "stress_signs": ["scratching"]}`, nil)
	agent.On("StartChat", mock.Anything, mock.Anything).Return(chat)
	chat.On("Send", mock.Anything, mock.Anything).
		Return(&llm.Reply{Text: "強い不安です。", Calls: []llm.FunctionCall{call}}, nil)
	exec.On("Execute", mock.Anything, call).
		Return(tools.Result{Name: tools.MakeEmergencyCall, Args: call.Args, Output: tools.ResultCallPlaced, Success: true, Target: "+819000000000", Reference: "CA1"})
	chat.On("SendResults", mock.Anything, []llm.FunctionResult{{Name: tools.MakeEmergencyCall, Result: tools.ResultCallPlaced}}).
		Return(&llm.Reply{Text: "オーナーに電話しました。"}, nil)
	st.On("SaveRun", mock.Anything, mock.MatchedBy(func(r *model.Run) bool {
		return r.Outcome == "intervened" && len(r.Actions) == 1 && r.Actions[0].Seq == 1 && r.Actions[0].Reference == "CA1"
	})).Return(nil)

	m := newTestMonitor(obs, agent, exec, st)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "high_anxiety", CarTemp: 26, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeIntervened, report.Outcome)
	assert.Equal(t, "強い不安です。", report.Thought)
	assert.Equal(t, "オーナーに電話しました。", report.FinalReport)
	require.Len(t, report.Actions, 1)
	assert.True(t, report.Actions[0].Success)
	exec.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestRunObserverFailure(t *testing.T) {
	obs := &MockObserver{}
	st := &MockRunsStore{}
	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))
	st.On("SaveRun", mock.Anything, mock.MatchedBy(func(r *model.Run) bool {
		return r.Outcome == "failed" && r.Error == "observer: quota exceeded"
	})).Return(nil)

	m := newTestMonitor(obs, &MockAgent{}, &MockExecutor{}, st)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "relax", CarTemp: 26, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Nil(t, report.Observation)
	st.AssertExpectations(t)
}

func TestRunUnparseableObservation(t *testing.T) {
	obs := &MockObserver{}
	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("I cannot see the video", nil)

	m := newTestMonitor(obs, &MockAgent{}, &MockExecutor{}, nil)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "relax", CarTemp: 26, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Contains(t, report.Error, "failed to parse observation")
}

func TestRunFinalReportFailureKeepsActions(t *testing.T) {
	obs := &MockObserver{}
	agent := &MockAgent{}
	chat := &MockChat{}
	exec := &MockExecutor{}

	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"subject_detected": true, "anxiety_level": "Low"}`, nil)
	agent.On("StartChat", mock.Anything, mock.Anything).Return(chat)
	chat.On("Send", mock.Anything, mock.Anything).
		Return(&llm.Reply{Calls: []llm.FunctionCall{{Name: tools.PlayMusic, Args: map[string]any{"track_type": "relax"}}}}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(tools.Result{Name: tools.PlayMusic, Output: "音楽を再生します。relax", Success: true})
	chat.On("SendResults", mock.Anything, mock.Anything).Return(nil, errors.New("deadline exceeded"))

	m := newTestMonitor(obs, agent, exec, nil)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "low_anxiety", CarTemp: 26, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, "final report: deadline exceeded", report.Error)
	assert.Len(t, report.Actions, 1)
}

func TestRunWithRuleAgent(t *testing.T) {
	obs := &MockObserver{}
	exec := &MockExecutor{}
	obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"subject_detected": true, "anxiety_level": "Relax"}`, nil)
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(c llm.FunctionCall) bool { return c.Name == tools.MakeEmergencyCall })).
		Return(tools.Result{Name: tools.MakeEmergencyCall, Output: tools.ResultCallPlaced, Success: true})
	exec.On("Execute", mock.Anything, mock.MatchedBy(func(c llm.FunctionCall) bool { return c.Name == tools.OpenCarWindows })).
		Return(tools.Result{Name: tools.OpenCarWindows, Output: "窓を 100% 開きます。", Success: true, Level: 100})

	m := newTestMonitor(obs, RuleAgent{}, exec, nil)
	report, err := m.Run(context.Background(), Request{ScenarioKey: "relax", CarTemp: 38, Pet: pet.Default()})
	require.NoError(t, err)

	assert.Equal(t, OutcomeIntervened, report.Outcome)
	require.Len(t, report.Actions, 2)
	assert.Equal(t, tools.MakeEmergencyCall, report.Actions[0].Name)
	assert.Equal(t, tools.OpenCarWindows, report.Actions[1].Name)
	assert.Contains(t, report.FinalReport, "窓を 100% 開きます。")
}

func TestFetchAndList(t *testing.T) {
	st := &MockRunsStore{}
	run := &model.Run{
		ID:          "run-1",
		ScenarioKey: "high_anxiety",
		ScenarioURI: "gs://paw-guardian-tokyo/High Anxiety.mp4",
		Outcome:     "intervened",
		Observation: []byte(`{"subject_detected":true,"anxiety_level":"High"}`),
		Actions: []model.Action{
			{Seq: 1, Tool: tools.MakeEmergencyCall, Args: []byte(`{"message":"至急"}`), Output: tools.ResultCallPlaced, Success: true},
		},
	}
	st.On("FetchRun", mock.Anything, "run-1").Return(run, nil)
	st.On("FetchRun", mock.Anything, "missing").Return(nil, store.ErrRunNotFound)
	st.On("ListRuns", mock.Anything, 10, 0).Return([]model.Run{*run}, nil)
	st.On("CountRuns", mock.Anything).Return(int64(1), nil)

	m := newTestMonitor(&MockObserver{}, RuleAgent{}, &MockExecutor{}, st)

	report, err := m.Fetch(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "シナリオ C: 重度の不安 (High Anxiety)", report.Scenario.Label)
	assert.Equal(t, "至急", report.Actions[0].Args["message"])

	_, err = m.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	reports, total, err := m.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, reports, 1)
}

func TestConvertRoundTrip(t *testing.T) {
	report := &Report{
		ID:          "run-9",
		Scenario:    scenario.Scenario{Key: "low_anxiety", URI: "gs://paw-guardian-tokyo/Low Anxiety.mp4"},
		CarTemp:     31,
		Pet:         pet.Profile{Name: "Pochi", Breed: "パグ", Age: 3, Weight: 8, Sensitivity: 5},
		Observation: &Observation{SubjectDetected: true, AnxietyLevel: AnxietyLow, StressSigns: []string{"licking"}},
		Actions: []tools.Result{
			{Name: tools.PlayMusic, Args: map[string]any{"track_type": "relax"}, Output: "ok", Success: true},
			{Name: tools.SendSMSAlert, Output: tools.ResultNotConfigured},
		},
		Outcome:   OutcomeIntervened,
		StartedAt: fixedNow,
	}

	run, err := ToModel(report)
	require.NoError(t, err)
	assert.Equal(t, "intervened", run.Outcome)
	assert.Equal(t, AnxietyLow, run.AnxietyLevel)
	require.Len(t, run.Actions, 2)
	assert.Equal(t, 2, run.Actions[1].Seq)
	assert.Nil(t, run.Actions[1].Args)

	back, err := FromModel(run)
	require.NoError(t, err)
	assert.Equal(t, report.Observation, back.Observation)
	assert.Equal(t, report.Pet, back.Pet)
	assert.Equal(t, "relax", back.Actions[0].Args["track_type"])
}

func TestFromModelRejectsUnknownOutcome(t *testing.T) {
	_, err := FromModel(&model.Run{ID: "x", Outcome: "exploded"})
	assert.Error(t, err)
}

func TestRunTakesBrachycephalyFromBreed(t *testing.T) {
	tests := []struct {
		name  string
		pet   pet.Profile
		brach bool
	}{
		{"pug", pet.Profile{Name: "Mugi", Breed: pet.BreedPug, Age: 3, Weight: 8, Sensitivity: 5}, true},
		{"corgi named like the flag", pet.Profile{Name: "Brachycephalic: Yes", Breed: "コーギー", Age: 3, Weight: 12, Sensitivity: 5, MedicalHistory: "Brachycephalic: Yes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &MockObserver{}
			agent := &MockAgent{}
			chat := &MockChat{}
			obs.On("Observe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(`{"subject_detected": true, "anxiety_level": "Relax", "observations": "", "stress_signs": []}`, nil)
			agent.On("StartChat", SystemPrompt, tools.Declarations()).Return(chat)
			chat.On("Send", mock.Anything, mock.MatchedBy(func(msg string) bool {
				s, err := ParseStatusMessage(msg)
				return err == nil && s.Brachycephalic == tt.brach
			})).Return(&llm.Reply{Text: "ok"}, nil)

			m := newTestMonitor(obs, agent, &MockExecutor{}, nil)
			report, err := m.Run(context.Background(), Request{ScenarioKey: "relax", CarTemp: 31, Pet: tt.pet})
			require.NoError(t, err)
			assert.Equal(t, OutcomeSafe, report.Outcome)
			chat.AssertExpectations(t)
		})
	}
}

func TestExecuteRefusesWithoutSubject(t *testing.T) {
	exec := &MockExecutor{}
	m := newTestMonitor(&MockObserver{}, RuleAgent{}, exec, nil)
	call := llm.FunctionCall{Name: tools.OpenCarWindows, Args: map[string]any{"level": 100}}

	for _, obs := range []*Observation{nil, {SubjectDetected: false, AnxietyLevel: AnxietyNone}} {
		res := m.execute(context.Background(), &Report{ID: "run-1", Observation: obs}, call)
		assert.Equal(t, ResultRefused, res.Output)
		assert.False(t, res.Success)
		assert.Equal(t, tools.OpenCarWindows, res.Name)
	}
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestReportDuration(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   time.Duration
	}{
		{"finished", Report{StartedAt: fixedNow, FinishedAt: fixedNow.Add(5 * time.Second)}, 5 * time.Second},
		{"still running", Report{StartedAt: fixedNow}, 0},
		{"clock went back", Report{StartedAt: fixedNow, FinishedAt: fixedNow.Add(-time.Second)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Duration())
		})
	}
}
