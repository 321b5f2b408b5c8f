package monitor

import (
	"context"
	"encoding/json"

	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
)

// offlineObservations are what each builtin video shows
var offlineObservations = map[string]Observation{
	"relax": {
		SubjectDetected: true,
		AnxietyLevel:    AnxietyRelax,
		Observations:    "後部座席で静かに座っています。",
		StressSigns:     []string{},
	},
	"low_anxiety": {
		SubjectDetected: true,
		AnxietyLevel:    AnxietyLow,
		Observations:    "鼻をなめ、落ち着きなく周囲を見回しています。",
		StressSigns:     []string{"licking nose", "ears back"},
	},
	"high_anxiety": {
		SubjectDetected: true,
		AnxietyLevel:    AnxietyHigh,
		Observations:    "窓を引っかき、激しくパンティングしています。",
		StressSigns:     []string{"scratching windows", "heavy panting", "barking"},
	},
	"nothing": {
		SubjectDetected: false,
		AnxietyLevel:    AnxietyNone,
		Observations:    "車内に犬は見当たりません。",
		StressSigns:     []string{},
	},
}

// OfflineObservation is the canned observer answer for a scenario key.
// Unknown keys get the relaxed answer.
func OfflineObservation(key string) string {
	obs, ok := offlineObservations[key]
	if !ok {
		obs = offlineObservations["relax"]
	}
	b, _ := json.Marshal(obs)
	return string(b)
}

// OfflineObserver answers each video with the canned observation of the
// catalog scenario that owns it. It follows catalog reloads.
func (m *Monitor) OfflineObserver() llm.Observer {
	return offlineObserver{m: m}
}

type offlineObserver struct {
	m *Monitor
}

func (o offlineObserver) Observe(_ context.Context, uri, _, _ string) (string, error) {
	for _, sc := range o.m.Scenarios().All() {
		if sc.URI == uri {
			return OfflineObservation(sc.Key), nil
		}
	}
	return OfflineObservation(""), nil
}
