// Package monitor runs the two-stage PawGuardian pipeline.
//
// A run observes the scenario video with the Observer agent and, when a pet
// is in the car, hands the observation to the Decision agent. The function
// calls it returns are executed through the toolbox, their results are sent
// back and the agent writes the final report.
//
//	m := &monitor.Monitor{
//	    Catalog:  catalog,
//	    Observer: vertex,
//	    Agent:    vertex,
//	    Executor: toolbox,
//	    Store:    runsStore,
//	}
//	report, err := m.Run(ctx, monitor.Request{ScenarioKey: "high_anxiety", CarTemp: 36, Pet: pet.Default()})
//
// RuleAgent implements llm.Agent from the safety protocol alone and is used
// when no model is available.
package monitor
