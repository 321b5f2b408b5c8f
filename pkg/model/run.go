package model

import (
	"time"
)

// Run is a persisted monitoring run
type Run struct {
	ID          string `gorm:"primaryKey"`
	ScenarioKey string
	ScenarioURI string
	CarTemp     int

	PetName        string
	PetBreed       string
	PetAge         float64
	PetWeight      float64
	PetSensitivity int
	PetHistory     string
	PetContext     string

	SubjectDetected bool
	AnxietyLevel    string
	// Observation is the raw observer JSON
	Observation []byte `gorm:"type:jsonb"`

	Thought     string
	FinalReport string
	Outcome     string
	Error       string

	StartedAt  time.Time
	FinishedAt time.Time

	Actions []Action `gorm:"foreignKey:RunID"`
}

func (Run) TableName() string {
	return "monitor_runs"
}

// Action is a tool call executed during a run
type Action struct {
	ID        uint `gorm:"primaryKey"`
	RunID     string
	Seq       int
	Tool      string
	Args      []byte `gorm:"type:jsonb"`
	Output    string
	Success   bool
	Target    string
	Reference string
}

func (Action) TableName() string {
	return "monitor_actions"
}
