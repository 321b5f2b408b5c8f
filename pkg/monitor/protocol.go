package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// ErrMalformedStatus is returned when the rule agent cannot read a status message
var ErrMalformedStatus = errors.New("malformed status message")

// Temperature thresholds in °C
const (
	HeatThreshold           = 35
	BrachycephalicThreshold = 30
)

// FullyOpen is the window level used by the heat protocol
const FullyOpen = 100

// Rule identifies a safety protocol rule
type Rule int

const (
	RuleHeat Rule = iota + 1
	RuleBrachycephalicHeat
	RuleHighAnxiety
	RuleLowAnxiety
)

func (r Rule) String() string {
	switch r {
	case RuleHeat:
		return fmt.Sprintf("車内温度が%d°Cを超えています", HeatThreshold)
	case RuleBrachycephalicHeat:
		return fmt.Sprintf("短頭種で車内温度が%d°Cを超えています", BrachycephalicThreshold)
	case RuleHighAnxiety:
		return "強い不安反応が見られます"
	case RuleLowAnxiety:
		return "軽い不安反応が見られます"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// Triggered returns the rules that apply to a status, in protocol order.
// Nothing applies when no pet was detected.
func Triggered(s Status) []Rule {
	obs := s.Observation
	if !obs.SubjectDetected {
		return nil
	}

	var rules []Rule
	if s.CarTemp > HeatThreshold {
		rules = append(rules, RuleHeat)
	}
	if s.Brachycephalic && s.CarTemp > BrachycephalicThreshold {
		rules = append(rules, RuleBrachycephalicHeat)
	}
	switch obs.AnxietyLevel {
	case AnxietyHigh:
		rules = append(rules, RuleHighAnxiety)
	case AnxietyLow:
		rules = append(rules, RuleLowAnxiety)
	}
	return rules
}

// Decide maps a status to tool calls. A tool appears at most once.
func Decide(s Status) []llm.FunctionCall {
	rules := Triggered(s)
	if len(rules) == 0 {
		return nil
	}

	var (
		calls []llm.FunctionCall
		seen  = map[string]bool{}
	)
	add := func(call llm.FunctionCall) {
		if seen[call.Name] {
			return
		}
		seen[call.Name] = true
		calls = append(calls, call)
	}

	reasons := make([]string, 0, len(rules))
	for _, r := range rules {
		reasons = append(reasons, r.String())
	}
	alert := fmt.Sprintf("PawGuardian 緊急通知: %s。車内温度は%d°Cです。直ちに車両へ戻ってください。", strings.Join(reasons, "、"), s.CarTemp)

	for _, r := range rules {
		switch r {
		case RuleHeat:
			add(llm.FunctionCall{Name: tools.MakeEmergencyCall, Args: map[string]any{"message": alert}})
			add(llm.FunctionCall{Name: tools.OpenCarWindows, Args: map[string]any{"level": FullyOpen}})
		case RuleBrachycephalicHeat, RuleHighAnxiety:
			add(llm.FunctionCall{Name: tools.MakeEmergencyCall, Args: map[string]any{"message": alert}})
		case RuleLowAnxiety:
			add(llm.FunctionCall{Name: tools.PlayMusic, Args: map[string]any{"track_type": tools.TrackRelax}})
			add(llm.FunctionCall{
				Name: tools.SendSMSAlert,
				Args: map[string]any{"message": fmt.Sprintf("PawGuardian: ペットに軽い不安反応が見られます。リラックス音楽を再生しました。車内温度は%d°Cです。", s.CarTemp)},
			})
		}
	}
	return calls
}

// Safe and vacant report texts
const (
	SafeReport   = "ペットは安全です。介入の必要はありません。"
	VacantReport = "車内にペットが検知されませんでした。車両は空で安全です。"
)

// RuleAgent is an llm.Agent that follows the safety protocol without a model
type RuleAgent struct{}

var _ llm.Agent = RuleAgent{}

// StartChat ignores the system instruction; the protocol is built in.
func (RuleAgent) StartChat(string, []llm.FunctionDeclaration) llm.Chat {
	return &ruleChat{}
}

type ruleChat struct {
	status Status
	rules  []Rule
}

func (c *ruleChat) Send(ctx context.Context, message string) (*llm.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status, err := ParseStatusMessage(message)
	if err != nil {
		return nil, err
	}
	c.status = status
	c.rules = Triggered(status)

	if !status.Observation.SubjectDetected {
		return &llm.Reply{Text: VacantReport}, nil
	}
	if len(c.rules) == 0 {
		return &llm.Reply{Text: fmt.Sprintf("不安レベルは%sで、車内温度は%d°Cです。%s", status.Observation.AnxietyLevel, status.CarTemp, SafeReport)}, nil
	}

	reasons := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		reasons = append(reasons, r.String())
	}
	return &llm.Reply{
		Text:  fmt.Sprintf("介入が必要です: %s。", strings.Join(reasons, "、")),
		Calls: Decide(status),
	}, nil
}

func (c *ruleChat) SendResults(ctx context.Context, results []llm.FunctionResult) (*llm.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("## 最終レポート\n\n")
	fmt.Fprintf(&sb, "車内温度 %d°C、不安レベル %s に基づき、以下の対応を実施しました。\n\n", c.status.CarTemp, c.status.Observation.AnxietyLevel)
	for _, r := range results {
		fmt.Fprintf(&sb, "- `%s`: %s\n", r.Name, r.Result)
	}
	return &llm.Reply{Text: sb.String()}, nil
}
