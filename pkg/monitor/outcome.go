package monitor

//go:generate go run github.com/dmarkham/enumer -type Outcome -trimprefix Outcome -transform lower -json -text -output outcome.gen.go

// Outcome is the final state of a run
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeVacant
	OutcomeSafe
	OutcomeIntervened
	OutcomeFailed
)

// Anxiety levels reported by the observer
const (
	AnxietyNone  = "None"
	AnxietyRelax = "Relax"
	AnxietyLow   = "Low"
	AnxietyHigh  = "High"
)
