package monitor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const observerPromptTemplate = `Analyze the video based on these criteria:
- Relax: Body relaxed, sitting quietly, no exploration.
- Low Anxiety: Licking nose, ears back, looking around restlessly.
- High Anxiety: Scratching windows, heavy panting, continuous barking.

[CRITICAL RULE]
If NO dog is visible in the car, set "subject_detected" to false AND "anxiety_level" to "None".

Context: %s.
Output JSON: {
    "subject_detected": bool,
    "anxiety_level": "Relax|Low|High",
    "observations": "string (Japanese)",
    "stress_signs": ["string"]
}
`

// SystemPrompt is the Decision agent's system instruction
const SystemPrompt = `You are 'PawGuardian' Autonomous AI. Your goal is safety intervention.

[CORE OPERATING PRINCIPLE]
- Safety interventions (Calling, SMS, Windows) are ONLY permitted if a dog is detected inside the car ("subject_detected": true).
- If NO dog is detected, your only task is to report "Vehicle is empty and safe." regardless of the temperature.

[Safety Protocols]
1. IF subject_detected is true AND temperature > 35: CALL owner AND OPEN windows.
2. IF subject_detected is true AND pet_breed is 'Brachycephalic' and temp > 30: CALL owner.
3. IF subject_detected is true AND anxiety == 'High': CALL owner.
4. IF subject_detected is true AND anxiety == 'Low': PLAY music and SMS owner.
5. IF subject_detected is true AND anxiety == 'Relax' AND temperature is safe: DO NOT call any tools. Just report "Safe".

[Constraint]
- Do NOT perform any actions if the status is 'Relax' and temperature is within normal range.
- Be concise. Only act when necessary.

[Language Rule]
- ALL your responses (Thought and Final Report) MUST be in JAPANESE.
- Even if the tool execution results are in English, you must summarize them in JAPANESE.
`

const statusMessageTemplate = `Current status for evaluation:
- Visual Data: %s
- Car Temp: %d°C
- Brachycephalic: %s
- Pet Context: %s

Task:
Determine if any intervention is required.

Rules:
- If 'anxiety_level' is 'Relax' and temp < 30°C: STOP and report "Pet is safe. No action needed."
- Do not call tools for 'Relax' state.

Instruction:
1. Evaluate 'anxiety_level' and 'Car Temperature' against the rules.
2. If no rules are triggered, do not use any tools.
3. Summarize in Japanese.
`

// ObserverPrompt renders the Observer agent prompt for a pet context
func ObserverPrompt(petContext string) string {
	return fmt.Sprintf(observerPromptTemplate, petContext)
}

// Status is what the Decision agent evaluates
type Status struct {
	Observation Observation
	CarTemp     int
	// Brachycephalic comes from the breed, never from the free-text context
	Brachycephalic bool
	PetContext     string
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// StatusMessage renders the first message of the decision chat
func StatusMessage(s Status) (string, error) {
	visual, err := json.Marshal(s.Observation)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(statusMessageTemplate, visual, s.CarTemp, yesNo(s.Brachycephalic), oneLine(s.PetContext)), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	visualLineRgx  = regexp.MustCompile(`(?m)^- Visual Data: (.*)$`)
	tempLineRgx    = regexp.MustCompile(`(?m)^- Car Temp: (-?\d+)°C$`)
	brachyLineRgx  = regexp.MustCompile(`(?m)^- Brachycephalic: (Yes|No)$`)
	contextLineRgx = regexp.MustCompile(`(?m)^- Pet Context: (.*)$`)
)

// ParseStatusMessage recovers the Status from a message built by StatusMessage
func ParseStatusMessage(message string) (Status, error) {
	var s Status

	m := visualLineRgx.FindStringSubmatch(message)
	if m == nil {
		return s, fmt.Errorf("%w: missing visual data", ErrMalformedStatus)
	}
	if err := json.Unmarshal([]byte(m[1]), &s.Observation); err != nil {
		return s, fmt.Errorf("%w: visual data: %v", ErrMalformedStatus, err)
	}

	m = tempLineRgx.FindStringSubmatch(message)
	if m == nil {
		return s, fmt.Errorf("%w: missing car temperature", ErrMalformedStatus)
	}
	temp, err := strconv.Atoi(m[1])
	if err != nil {
		return s, fmt.Errorf("%w: car temperature: %v", ErrMalformedStatus, err)
	}
	s.CarTemp = temp

	m = brachyLineRgx.FindStringSubmatch(message)
	if m == nil {
		return s, fmt.Errorf("%w: missing brachycephalic flag", ErrMalformedStatus)
	}
	s.Brachycephalic = m[1] == "Yes"

	if m = contextLineRgx.FindStringSubmatch(message); m != nil {
		s.PetContext = m[1]
	}
	return s, nil
}
