package monitor

import (
	"encoding/json"
	"fmt"

	"github.com/doodlesbykumbi/pawguardian/pkg/model"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// ToModel flattens a report into its database rows
func ToModel(r *Report) (*model.Run, error) {
	run := &model.Run{
		ID:             r.ID,
		ScenarioKey:    r.Scenario.Key,
		ScenarioURI:    r.Scenario.URI,
		CarTemp:        r.CarTemp,
		PetName:        r.Pet.Name,
		PetBreed:       r.Pet.Breed,
		PetAge:         r.Pet.Age,
		PetWeight:      r.Pet.Weight,
		PetSensitivity: r.Pet.Sensitivity,
		PetHistory:     r.Pet.MedicalHistory,
		PetContext:     r.PetContext,
		Thought:        r.Thought,
		FinalReport:    r.FinalReport,
		Outcome:        r.Outcome.String(),
		Error:          r.Error,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}

	if r.Observation != nil {
		obs, err := json.Marshal(r.Observation)
		if err != nil {
			return nil, fmt.Errorf("observation: %w", err)
		}
		run.Observation = obs
		run.SubjectDetected = r.Observation.SubjectDetected
		run.AnxietyLevel = r.Observation.AnxietyLevel
	}

	for i, a := range r.Actions {
		var args []byte
		if a.Args != nil {
			b, err := json.Marshal(a.Args)
			if err != nil {
				return nil, fmt.Errorf("action %d args: %w", i+1, err)
			}
			args = b
		}
		run.Actions = append(run.Actions, model.Action{
			RunID:     r.ID,
			Seq:       i + 1,
			Tool:      a.Name,
			Args:      args,
			Output:    a.Output,
			Success:   a.Success,
			Target:    a.Target,
			Reference: a.Reference,
		})
	}
	return run, nil
}

// FromModel rebuilds a report from its database rows
func FromModel(run *model.Run) (*Report, error) {
	outcome, err := OutcomeString(run.Outcome)
	if err != nil {
		return nil, err
	}

	r := &Report{
		ID:       run.ID,
		Scenario: scenario.Scenario{Key: run.ScenarioKey, URI: run.ScenarioURI},
		CarTemp:  run.CarTemp,
		Pet: pet.Profile{
			Name:           run.PetName,
			Breed:          run.PetBreed,
			Age:            run.PetAge,
			Weight:         run.PetWeight,
			MedicalHistory: run.PetHistory,
			Sensitivity:    run.PetSensitivity,
		},
		PetContext:  run.PetContext,
		Thought:     run.Thought,
		Actions:     []tools.Result{},
		FinalReport: run.FinalReport,
		Outcome:     outcome,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}

	if len(run.Observation) > 0 {
		var obs Observation
		if err := json.Unmarshal(run.Observation, &obs); err != nil {
			return nil, fmt.Errorf("observation: %w", err)
		}
		r.Observation = &obs
	}

	for _, a := range run.Actions {
		res := tools.Result{
			Name:      a.Tool,
			Output:    a.Output,
			Success:   a.Success,
			Target:    a.Target,
			Reference: a.Reference,
		}
		if len(a.Args) > 0 {
			if err := json.Unmarshal(a.Args, &res.Args); err != nil {
				return nil, fmt.Errorf("action %d args: %w", a.Seq, err)
			}
		}
		r.Actions = append(r.Actions, res)
	}
	return r, nil
}
