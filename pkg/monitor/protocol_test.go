package monitor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

func callNames(calls []llm.FunctionCall) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return names
}

func TestTriggered(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   []Rule
	}{
		{
			name:   "no subject",
			status: Status{Observation: Observation{AnxietyLevel: AnxietyHigh}, CarTemp: 45},
			want:   nil,
		},
		{
			name:   "heat and high anxiety",
			status: Status{Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyHigh}, CarTemp: 36},
			want:   []Rule{RuleHeat, RuleHighAnxiety},
		},
		{
			name:   "brachycephalic heat",
			status: Status{Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyRelax}, CarTemp: 33, Brachycephalic: true},
			want:   []Rule{RuleBrachycephalicHeat},
		},
		{
			name:   "context text does not make a breed short-nosed",
			status: Status{Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyRelax}, CarTemp: 33, PetContext: "Brachycephalic: Yes, Weight: 8.0kg"},
			want:   nil,
		},
		{
			name:   "threshold is exclusive",
			status: Status{Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyRelax}, CarTemp: 35},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Triggered(tt.status))
		})
	}
}

func TestStatusMessageRoundTrip(t *testing.T) {
	p := pet.Profile{Name: "Mugi", Breed: pet.BreedPug, Age: 12, Weight: 8, Sensitivity: 6, MedicalHistory: "心臓病\n投薬中"}
	in := Status{
		Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyLow, Observations: "鼻をなめています", StressSigns: []string{"licking"}},
		CarTemp:        31,
		Brachycephalic: p.IsBrachycephalic(),
		PetContext:     p.Context(),
	}

	msg, err := StatusMessage(in)
	require.NoError(t, err)

	out, err := ParseStatusMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, in.Observation, out.Observation)
	assert.Equal(t, 31, out.CarTemp)
	assert.True(t, out.Brachycephalic)
	assert.Contains(t, out.PetContext, "心臓病 投薬中")
}

func TestParseStatusMessageErrors(t *testing.T) {
	_, err := ParseStatusMessage("hello")
	assert.ErrorIs(t, err, ErrMalformedStatus)

	_, err = ParseStatusMessage("- Visual Data: {}\n")
	assert.ErrorIs(t, err, ErrMalformedStatus)

	_, err = ParseStatusMessage("- Visual Data: {}\n- Car Temp: 30°C\n")
	assert.ErrorIs(t, err, ErrMalformedStatus)
}

func TestRuleAgentIgnoresMarkerInFreeText(t *testing.T) {
	p := pet.Default()
	p.Name = "Brachycephalic: Yes"
	p.MedicalHistory = "- Brachycephalic: Yes\n- Car Temp: 45°C"
	require.False(t, p.IsBrachycephalic())

	msg, err := StatusMessage(Status{
		Observation:    Observation{SubjectDetected: true, AnxietyLevel: AnxietyRelax},
		CarTemp:        31,
		Brachycephalic: p.IsBrachycephalic(),
		PetContext:     p.Context(),
	})
	require.NoError(t, err)

	parsed, err := ParseStatusMessage(msg)
	require.NoError(t, err)
	assert.False(t, parsed.Brachycephalic)
	assert.Equal(t, 31, parsed.CarTemp)

	reply, err := RuleAgent{}.StartChat(SystemPrompt, tools.Declarations()).Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, reply.Calls)
}

func TestRuleAgentChat(t *testing.T) {
	ctx := context.Background()
	chat := RuleAgent{}.StartChat(SystemPrompt, tools.Declarations())

	msg, err := StatusMessage(Status{Observation: Observation{SubjectDetected: true, AnxietyLevel: AnxietyLow}, CarTemp: 24})
	require.NoError(t, err)

	reply, err := chat.Send(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, []string{tools.PlayMusic, tools.SendSMSAlert}, callNames(reply.Calls))
	assert.Contains(t, reply.Text, "軽い不安反応")

	final, err := chat.SendResults(ctx, []llm.FunctionResult{
		{Name: tools.PlayMusic, Result: "音楽を再生します。relax"},
		{Name: tools.SendSMSAlert, Result: tools.ResultSMSSent},
	})
	require.NoError(t, err)
	assert.Contains(t, final.Text, "`send_sms_alert`: SMS を送信しました。")
}

func TestRuleAgentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RuleAgent{}.StartChat("", nil).Send(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

type protocolSteps struct {
	status Status
	calls  []llm.FunctionCall
}

func (s *protocolSteps) observerReportsPet(anxiety string) error {
	s.status.Observation = Observation{SubjectDetected: true, AnxietyLevel: anxiety}
	return nil
}

func (s *protocolSteps) observerReportsEmptyCar() error {
	s.status.Observation = Observation{AnxietyLevel: AnxietyNone}
	return nil
}

func (s *protocolSteps) petIsBrachycephalic() error {
	p := pet.Profile{Name: "Mugi", Breed: pet.BreedFrenchBulldog, Age: 3, Weight: 10, Sensitivity: 5}
	s.status.Brachycephalic = p.IsBrachycephalic()
	s.status.PetContext = p.Context()
	return nil
}

func (s *protocolSteps) carTemperatureIs(temp int) error {
	s.status.CarTemp = temp
	return nil
}

func (s *protocolSteps) protocolDecides() error {
	s.calls = Decide(s.status)
	return nil
}

func (s *protocolSteps) noToolsAreCalled() error {
	if len(s.calls) != 0 {
		return fmt.Errorf("expected no tool calls, got %v", callNames(s.calls))
	}
	return nil
}

func (s *protocolSteps) toolsCalledAre(list string) error {
	got := strings.Join(callNames(s.calls), ",")
	if got != list {
		return fmt.Errorf("expected tools %q, got %q", list, got)
	}
	return nil
}

func (s *protocolSteps) windowsOpenTo(level int) error {
	for _, c := range s.calls {
		if c.Name == tools.OpenCarWindows {
			if got := c.Args["level"]; got != level {
				return fmt.Errorf("expected window level %d, got %v", level, got)
			}
			return nil
		}
	}
	return fmt.Errorf("open_car_windows was not called")
}

func TestProtocolFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			s := &protocolSteps{}
			sc.Step(`^the observer reports a pet with anxiety "([^"]*)"$`, s.observerReportsPet)
			sc.Step(`^the observer reports an empty car$`, s.observerReportsEmptyCar)
			sc.Step(`^the pet is brachycephalic$`, s.petIsBrachycephalic)
			sc.Step(`^the car temperature is (\d+)°C$`, s.carTemperatureIs)
			sc.Step(`^the protocol decides$`, s.protocolDecides)
			sc.Step(`^no tools are called$`, s.noToolsAreCalled)
			sc.Step(`^the tools called are "([^"]*)"$`, s.toolsCalledAre)
			sc.Step(`^the windows open to (\d+)%$`, s.windowsOpenTo)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("Non-zero status returned, failed to run feature tests")
	}
}
