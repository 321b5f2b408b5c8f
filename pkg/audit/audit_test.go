package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := InterventionEvent{
		RunID:     "run-1",
		Tool:      "make_emergency_call",
		Target:    "owner",
		Reference: "CA123",
		Success:   true,
	}

	logger.Log(event)

	output := buf.String()

	// <16*8+5>1 ...
	if !strings.HasPrefix(output, "<133>1 ") {
		t.Errorf("Expected PRI <133> and version 1, got %q", output)
	}
	if !strings.Contains(output, " pawguardian ") {
		t.Error("Expected app name 'pawguardian' in output")
	}
	if !strings.Contains(output, " intervention ") {
		t.Error("Expected message ID 'intervention' in output")
	}
	if !strings.Contains(output, `[action@32473 operation="make_emergency_call" reference="CA123" result="success"]`) {
		t.Errorf("Expected sorted action element in output, got %q", output)
	}
	if !strings.Contains(output, "run run-1 executed make_emergency_call for owner") {
		t.Error("Expected message in output")
	}
}

func TestRunEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   RunEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "vacant vehicle",
			event:   RunEvent{RunID: "r1", Scenario: "nothing", Outcome: "vacant"},
			wantMsg: "run r1 on scenario nothing finished as vacant with 0 action(s)",
			wantSev: SeverityInfo,
		},
		{
			name:    "intervention",
			event:   RunEvent{RunID: "r2", Scenario: "high_anxiety", Outcome: "intervened", Actions: 2},
			wantMsg: "run r2 on scenario high_anxiety finished as intervened with 2 action(s)",
			wantSev: SeverityNotice,
		},
		{
			name:    "failure",
			event:   RunEvent{RunID: "r3", Scenario: "relax", Outcome: "failed", ErrorMessage: "quota exceeded"},
			wantMsg: "run r3 on scenario relax failed: quota exceeded",
			wantSev: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.event.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if got := tt.event.MessageID(); got != "run" {
				t.Errorf("MessageID() = %q, want run", got)
			}
			if got := tt.event.Facility(); got != FacilityUser {
				t.Errorf("Facility() = %d, want %d", got, FacilityUser)
			}
		})
	}
}

func TestRunEventStructuredData(t *testing.T) {
	sd := RunEvent{
		RunID:        "r1",
		ClientIP:     "10.0.0.1",
		Scenario:     "high_anxiety",
		PetName:      "Lucky",
		CarTemp:      36,
		AnxietyLevel: "High",
		Outcome:      "intervened",
	}.StructuredData()

	if sd[SDIDRun]["car_temp"] != "36" {
		t.Errorf("car_temp = %q, want 36", sd[SDIDRun]["car_temp"])
	}
	if sd[SDIDSubject]["anxiety"] != "High" {
		t.Errorf("anxiety = %q, want High", sd[SDIDSubject]["anxiety"])
	}
	if sd[SDIDClient]["ip"] != "10.0.0.1" {
		t.Errorf("ip = %q, want 10.0.0.1", sd[SDIDClient]["ip"])
	}

	sd = RunEvent{RunID: "r2"}.StructuredData()
	if _, ok := sd[SDIDClient]; ok {
		t.Error("client element should be omitted without an IP")
	}
}

func TestInterventionEventFailure(t *testing.T) {
	event := InterventionEvent{
		RunID:        "r1",
		Tool:         "send_sms_alert",
		Success:      false,
		ErrorMessage: "Twilio が設定されていません。",
	}

	if event.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want warning", event.Severity())
	}
	if got := event.Message(); got != "run r1 failed to execute send_sms_alert: Twilio が設定されていません。" {
		t.Errorf("Message() = %q", got)
	}
	if got := event.StructuredData()[SDIDAction]["result"]; got != "failure" {
		t.Errorf("result = %q, want failure", got)
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`a"b`, `"a\"b"`},
		{`a]b`, `"a\]b"`},
		{`a\b`, `"a\\b"`},
	}
	for _, tt := range tests {
		if got := escapeSDValue(tt.in); got != tt.want {
			t.Errorf("escapeSDValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatStructuredDataEmpty(t *testing.T) {
	if got := formatStructuredData(nil); got != "" {
		t.Errorf("formatStructuredData(nil) = %q, want empty", got)
	}
}

func TestLogDisabled(t *testing.T) {
	var buf bytes.Buffer
	prev := DefaultLogger
	DefaultLogger = NewLogger()
	DefaultLogger.SetWriter(&buf)
	SetEnabled(false)
	defer func() {
		DefaultLogger = prev
		SetEnabled(true)
	}()

	Log(RunEvent{RunID: "r1"})

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}

func TestEnabledFromEnv(t *testing.T) {
	for _, v := range []string{"", "true", "1", "yes"} {
		if !enabledFromEnv(v) {
			t.Errorf("enabledFromEnv(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"false", "0", "no", "OFF", " False "} {
		if enabledFromEnv(v) {
			t.Errorf("enabledFromEnv(%q) = true, want false", v)
		}
	}
}

func TestLoggerLineIsStable(t *testing.T) {
	logger := NewLogger()
	logger.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	line := logger.Line(RunEvent{RunID: "r1", Scenario: "relax", Outcome: "safe", PetName: "Mugi"})
	if !strings.HasPrefix(line, "<14>1 2025-03-01T09:00:00.000Z ") {
		t.Errorf("unexpected header: %q", line)
	}
	if line != logger.Line(RunEvent{RunID: "r1", Scenario: "relax", Outcome: "safe", PetName: "Mugi"}) {
		t.Error("same event rendered differently")
	}
	if !strings.HasSuffix(line, " run r1 on scenario relax finished as safe with 0 action(s)\n") {
		t.Errorf("unexpected message: %q", line)
	}
}
