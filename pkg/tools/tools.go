package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
)

// Tool names
const (
	SendSMSAlert      = "send_sms_alert"
	MakeEmergencyCall = "make_emergency_call"
	OpenCarWindows    = "open_car_windows"
	PlayMusic         = "play_music"
)

// Music tracks accepted by play_music
const (
	TrackRelax      = "relax"
	TrackWhiteNoise = "white_noise"
)

// Result strings
const (
	ResultUnknownTool   = "Error"
	ResultNotConfigured = "エラー: Twilio が設定されていません。"
	ResultSMSSent       = "SMS を送信しました。"
	ResultCallPlaced    = "電話を発信しました。"
)

// Declarations returns the function declarations offered to the model
func Declarations() []llm.FunctionDeclaration {
	return []llm.FunctionDeclaration{
		{
			Name:        SendSMSAlert,
			Description: "Send an SMS alert to the owner.",
			Params:      []llm.Param{{Name: "message", Type: llm.TypeString, Required: true}},
		},
		{
			Name:        MakeEmergencyCall,
			Description: "Make an emergency phone call to the owner.",
			Params:      []llm.Param{{Name: "message", Type: llm.TypeString, Required: true}},
		},
		{
			Name:        OpenCarWindows,
			Description: "Open the car windows. Level: 0-100 (0 = closed, 100 = fully open).",
			Params:      []llm.Param{{Name: "level", Type: llm.TypeInteger, Required: true}},
		},
		{
			Name:        PlayMusic,
			Description: "Play soothing music. track_type: 'relax' or 'white_noise'.",
			Params:      []llm.Param{{Name: "track_type", Type: llm.TypeString, Required: true}},
		},
	}
}

// Notifier delivers messages to a phone
type Notifier interface {
	SendSMS(ctx context.Context, from, to, body string) (string, error)
	Call(ctx context.Context, from, to, twiml string) (string, error)
}

// SecretsProvider returns the current Twilio credentials
type SecretsProvider interface {
	Get(ctx context.Context) (*secrets.Secrets, error)
}

// Dialer builds a Notifier for a set of credentials
type Dialer func(s *secrets.Secrets) Notifier

// Result is the outcome of one tool execution
type Result struct {
	Name    string         `json:"name"`
	Args    map[string]any `json:"args,omitempty"`
	Output  string         `json:"output"`
	Success bool           `json:"success"`
	// Target is the phone number contacted, if any
	Target string `json:"target,omitempty"`
	// Reference is the provider id of the message or call
	Reference string `json:"reference,omitempty"`
	// Level is the window opening for open_car_windows
	Level int `json:"level,omitempty"`
	// MediaURL is the track to play for play_music
	MediaURL string `json:"media_url,omitempty"`
}

// FunctionResult converts the result for the model
func (r Result) FunctionResult() llm.FunctionResult {
	return llm.FunctionResult{Name: r.Name, Result: r.Output}
}

// Toolbox executes tool calls
type Toolbox struct {
	Secrets  SecretsProvider
	Dial     Dialer
	MusicURL string
}

// Execute runs a single call. It never returns an error: failures are
// reported in the result so the model can explain them.
func (t *Toolbox) Execute(ctx context.Context, call llm.FunctionCall) Result {
	res := Result{Name: call.Name, Args: call.Args}

	switch call.Name {
	case SendSMSAlert:
		t.sendSMS(ctx, call.Args, &res)
	case MakeEmergencyCall:
		t.call(ctx, call.Args, &res)
	case OpenCarWindows:
		openWindows(call.Args, &res)
	case PlayMusic:
		t.playMusic(call.Args, &res)
	default:
		res.Output = ResultUnknownTool
	}
	return res
}

func (t *Toolbox) notifier(ctx context.Context) (Notifier, *secrets.Secrets, bool) {
	if t.Secrets == nil || t.Dial == nil {
		return nil, nil, false
	}
	s, err := t.Secrets.Get(ctx)
	if err != nil || !s.TwilioConfigured() {
		return nil, nil, false
	}
	return t.Dial(s), s, true
}

func (t *Toolbox) sendSMS(ctx context.Context, args map[string]any, res *Result) {
	message, err := stringArg(args, "message")
	if err != nil {
		res.Output = fmt.Sprintf("エラー: SMS 送信に失敗しました - %v", err)
		return
	}
	n, s, ok := t.notifier(ctx)
	if !ok {
		res.Output = ResultNotConfigured
		return
	}
	res.Target = s.Owner
	sid, err := n.SendSMS(ctx, s.SMSFrom, s.Owner, message)
	if err != nil {
		res.Output = fmt.Sprintf("エラー: SMS 送信に失敗しました - %v", err)
		return
	}
	res.Reference = sid
	res.Success = true
	res.Output = ResultSMSSent
}

func (t *Toolbox) call(ctx context.Context, args map[string]any, res *Result) {
	message, err := stringArg(args, "message")
	if err != nil {
		res.Output = fmt.Sprintf("エラー: 電話発信に失敗しました - %v", err)
		return
	}
	n, s, ok := t.notifier(ctx)
	if !ok {
		res.Output = ResultNotConfigured
		return
	}
	twiml, err := SayTwiML(message)
	if err != nil {
		res.Output = fmt.Sprintf("エラー: 電話発信に失敗しました - %v", err)
		return
	}
	res.Target = s.Owner
	sid, err := n.Call(ctx, s.VoiceFrom, s.Owner, twiml)
	if err != nil {
		res.Output = fmt.Sprintf("エラー: 電話発信に失敗しました - %v", err)
		return
	}
	res.Reference = sid
	res.Success = true
	res.Output = ResultCallPlaced
}

func openWindows(args map[string]any, res *Result) {
	level, err := intArg(args, "level")
	if err != nil {
		res.Output = fmt.Sprintf("エラー: 窓の操作に失敗しました - %v", err)
		return
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	res.Level = level
	res.Success = true
	res.Output = fmt.Sprintf("窓を %d%% 開きます。", level)
}

func (t *Toolbox) playMusic(args map[string]any, res *Result) {
	track, err := stringArg(args, "track_type")
	if err != nil {
		res.Output = fmt.Sprintf("エラー: 音楽の再生に失敗しました - %v", err)
		return
	}
	track = strings.TrimSpace(track)
	if track != TrackRelax && track != TrackWhiteNoise {
		res.Output = fmt.Sprintf("エラー: 不明なトラック種別です - %s", track)
		return
	}
	res.MediaURL = t.MusicURL
	res.Success = true
	res.Output = fmt.Sprintf("音楽を再生します。%s", track)
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

func intArg(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case float32:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, fmt.Errorf("argument %q must be an integer", name)
			}
			return int(f), nil
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer", name)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer", name)
	}
}
