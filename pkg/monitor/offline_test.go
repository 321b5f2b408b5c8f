package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

func TestOfflineObserverPerScenario(t *testing.T) {
	exec := &MockExecutor{}
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(tools.Result{Output: tools.ResultSMSSent, Success: true})
	m := newTestMonitor(nil, RuleAgent{}, exec, nil)
	m.Observer = m.OfflineObserver()

	tests := []struct {
		key     string
		outcome Outcome
		anxiety string
	}{
		{"nothing", OutcomeVacant, AnxietyNone},
		{"relax", OutcomeSafe, AnxietyRelax},
		{"low_anxiety", OutcomeIntervened, AnxietyLow},
		{"high_anxiety", OutcomeIntervened, AnxietyHigh},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			report, err := m.Run(context.Background(), Request{ScenarioKey: tt.key, CarTemp: 26, Pet: pet.Default()})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, report.Outcome, report.Error)
			require.NotNil(t, report.Observation)
			assert.Equal(t, tt.anxiety, report.Observation.AnxietyLevel)
		})
	}
}

func TestOfflineObservationFallsBackToRelax(t *testing.T) {
	assert.Equal(t, OfflineObservation("relax"), OfflineObservation("storm"))

	obs, err := ParseObservation(OfflineObservation("nothing"))
	require.NoError(t, err)
	assert.False(t, obs.SubjectDetected)
}

func TestOfflineObserverFollowsCatalogReload(t *testing.T) {
	m := newTestMonitor(nil, RuleAgent{}, &MockExecutor{}, nil)
	obs := m.OfflineObserver()

	catalog, err := scenario.NewCatalog([]scenario.Scenario{
		{Key: "nothing", Label: "Empty", URI: "gs://other-bucket/empty.mp4"},
	})
	require.NoError(t, err)
	m.SetCatalog(catalog)

	text, err := obs.Observe(context.Background(), "gs://other-bucket/empty.mp4", scenario.VideoMIMEType, "")
	require.NoError(t, err)
	assert.Equal(t, OfflineObservation("nothing"), text)
}
