package audit

import "fmt"

// RunEvent records the completion of a monitoring run.
type RunEvent struct {
	RunID        string
	ClientIP     string
	Scenario     string
	PetName      string
	CarTemp      int
	AnxietyLevel string
	Outcome      string
	Actions      int
	ErrorMessage string
}

func (e RunEvent) MessageID() string {
	return "run"
}

func (e RunEvent) Message() string {
	if e.ErrorMessage != "" {
		return fmt.Sprintf("run %s on scenario %s failed: %s", e.RunID, e.Scenario, e.ErrorMessage)
	}
	return fmt.Sprintf("run %s on scenario %s finished as %s with %d action(s)", e.RunID, e.Scenario, e.Outcome, e.Actions)
}

func (e RunEvent) Severity() Severity {
	switch {
	case e.ErrorMessage != "":
		return SeverityError
	case e.Actions > 0:
		return SeverityNotice
	default:
		return SeverityInfo
	}
}

func (e RunEvent) Facility() int {
	return FacilityUser
}

func (e RunEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDRun: {
			"id":       e.RunID,
			"scenario": e.Scenario,
			"car_temp": fmt.Sprintf("%d", e.CarTemp),
			"outcome":  e.Outcome,
		},
		SDIDSubject: {
			"pet": e.PetName,
		},
	}
	if e.AnxietyLevel != "" {
		sd[SDIDSubject]["anxiety"] = e.AnxietyLevel
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}

// InterventionEvent records a single tool execution on behalf of a pet.
type InterventionEvent struct {
	RunID        string
	Tool         string
	Target       string
	Reference    string
	Success      bool
	ErrorMessage string
}

func (e InterventionEvent) MessageID() string {
	return "intervention"
}

func (e InterventionEvent) Message() string {
	target := ""
	if e.Target != "" {
		target = " for " + e.Target
	}
	if e.Success {
		return fmt.Sprintf("run %s executed %s%s", e.RunID, e.Tool, target)
	}
	msg := fmt.Sprintf("run %s failed to execute %s%s", e.RunID, e.Tool, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e InterventionEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e InterventionEvent) Facility() int {
	return FacilityLocal0
}

func (e InterventionEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDRun: {
			"id": e.RunID,
		},
		SDIDAction: {
			"operation": e.Tool,
			"result":    result(e.Success),
		},
	}
	if e.Target != "" {
		sd[SDIDSubject] = map[string]string{"target": e.Target}
	}
	if e.Reference != "" {
		sd[SDIDAction]["reference"] = e.Reference
	}
	return sd
}
