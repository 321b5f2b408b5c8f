package pet

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidProfile is returned when a profile field is out of range
var ErrInvalidProfile = errors.New("invalid pet profile")

// Breed names with special handling
const (
	BreedCustom        = "カスタム"
	BreedFrenchBulldog = "フレンチブルドッグ"
	BreedPug           = "パグ"
	seniorMarker       = "シニア犬"
)

// Input bounds
const (
	MinAge         = 0.5
	MaxAge         = 20.0
	MinWeight      = 5.0
	MaxWeight      = 30.0
	MinSensitivity = 1
	MaxSensitivity = 10
	Step           = 0.5

	seniorAge = 10.0
)

// BreedChoices are the breeds offered in the profile form
var BreedChoices = []string{"コーギー", "柴犬", "チワワ", "シュナウザー", "ポメラニアン", BreedCustom}

var brachycephalicBreeds = []string{BreedFrenchBulldog, BreedPug}

// Profile is the monitored pet
type Profile struct {
	Name           string  `json:"name"`
	Breed          string  `json:"breed"`
	CustomBreed    string  `json:"custom_breed,omitempty"`
	Age            float64 `json:"age"`
	Weight         float64 `json:"weight"`
	MedicalHistory string  `json:"medical_history,omitempty"`
	Sensitivity    int     `json:"sensitivity"`
}

// Default returns the profile pre-filled in the form
func Default() Profile {
	return Profile{
		Name:        "Lucky",
		Breed:       BreedChoices[0],
		Age:         4.5,
		Weight:      13.5,
		Sensitivity: 8,
	}
}

// Normalize resolves the custom breed and fills an empty name
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = Default().Name
	}
	p.Breed = strings.TrimSpace(p.Breed)
	if p.Breed == "" {
		p.Breed = Default().Breed
	}
	if p.Breed == BreedCustom {
		if custom := strings.TrimSpace(p.CustomBreed); custom != "" {
			p.Breed = custom
		}
	}
	p.CustomBreed = ""
	return p
}

// Validate checks the numeric inputs against the form bounds
func (p Profile) Validate() error {
	if err := checkRange("age", p.Age, MinAge, MaxAge); err != nil {
		return err
	}
	if err := checkRange("weight", p.Weight, MinWeight, MaxWeight); err != nil {
		return err
	}
	if p.Sensitivity < MinSensitivity || p.Sensitivity > MaxSensitivity {
		return fmt.Errorf("%w: sensitivity %d outside %d-%d", ErrInvalidProfile, p.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	return nil
}

func checkRange(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %.1f outside %.1f-%.1f", ErrInvalidProfile, field, v, lo, hi)
	}
	if math.Mod(v, Step) != 0 {
		return fmt.Errorf("%w: %s %.2f is not a multiple of %.1f", ErrInvalidProfile, field, v, Step)
	}
	return nil
}

// IsBrachycephalic reports whether the breed has poor heat tolerance
func (p Profile) IsBrachycephalic() bool {
	for _, b := range brachycephalicBreeds {
		if p.Breed == b {
			return true
		}
	}
	return false
}

// IsSenior reports whether the senior protocol applies
func (p Profile) IsSenior() bool {
	return strings.Contains(p.Breed, seniorMarker) || p.Age > seniorAge
}

// Note returns the special handling note for the agents, if any
func (p Profile) Note() string {
	switch {
	case strings.Contains(p.Breed, BreedFrenchBulldog):
		return "⚠️ クリティカル: これはブラシェペシック（短頭種）の犬種です。極端に低い熱耐性を持っています。温度閾値を5°C下げてください。"
	case p.IsSenior():
		return "⚠️ クリティカル: シニア犬。不安反応が低いです。反応が速くなります。"
	default:
		return ""
	}
}

// Context renders the profile for inclusion in agent prompts
func (p Profile) Context() string {
	brachy := "No"
	if p.IsBrachycephalic() {
		brachy = "Yes"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s, Breed: %s, Age: %s, Owner Sensitivity: %d/10.", p.Name, p.Breed, formatHalf(p.Age), p.Sensitivity)
	if note := p.Note(); note != "" {
		sb.WriteString(" ")
		sb.WriteString(note)
	}
	fmt.Fprintf(&sb, " Brachycephalic: %s, Weight: %skg", brachy, formatHalf(p.Weight))
	if h := strings.TrimSpace(p.MedicalHistory); h != "" {
		fmt.Fprintf(&sb, ", Medical History: %s", h)
	}
	return sb.String()
}

func formatHalf(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
