package llm

import "context"

// StaticObserver answers every observation with the same text. It stands in
// for the video model in offline runs and tests.
type StaticObserver string

var _ Observer = StaticObserver("")

// Observe implements Observer
func (s StaticObserver) Observe(context.Context, string, string, string) (string, error) {
	return string(s), nil
}

