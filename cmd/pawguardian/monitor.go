package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/pet"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a single monitoring pass and print the report",
	Long: `Run a single monitoring pass on a scenario and print the report.

The pass is recorded in the run history like one started from the dashboard.
With --offline no model is called: each scenario gets a canned observer
answer matching its video, --observation overrides it, and the decision is
made by the built-in safety rules.

Example:
  pawguardian monitor --scenario high_anxiety --car-temp 38
  pawguardian monitor --offline --scenario relax --breed パグ --car-temp 31
  pawguardian monitor --offline --observation '{"subject_detected": true, "anxiety_level": "High"}' -o json`,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := monitorRequest(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		offline, _ := cmd.Flags().GetBool("offline")
		observation, _ := cmd.Flags().GetString("observation")
		a, err := newApp(ctx, cfg, appOptions{Offline: offline, Observation: observation})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		report, err := a.Monitor.Run(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Run rejected: %v\n", err)
			os.Exit(1)
		}

		output, _ := cmd.Flags().GetString("output")
		if err := printReport(report, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to print report: %v\n", err)
			os.Exit(1)
		}
		if report.Outcome == monitor.OutcomeFailed {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	def := pet.Default()
	monitorCmd.Flags().StringP("scenario", "s", "", "scenario key (default: first in the catalog)")
	monitorCmd.Flags().IntP("car-temp", "t", monitor.DefaultCarTemp, "car interior temperature in °C")
	monitorCmd.Flags().String("name", def.Name, "pet name")
	monitorCmd.Flags().String("breed", def.Breed, "pet breed")
	monitorCmd.Flags().Float64("age", def.Age, "pet age in years")
	monitorCmd.Flags().Float64("weight", def.Weight, "pet weight in kg")
	monitorCmd.Flags().Int("sensitivity", def.Sensitivity, "separation sensitivity (1-10)")
	monitorCmd.Flags().String("history", "", "medical history")
	monitorCmd.Flags().Bool("offline", false, "use the rule agent and a static observer instead of Vertex AI")
	monitorCmd.Flags().String("observation", "", "observer answer (JSON) overriding the canned offline answers")
	monitorCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func monitorRequest(cmd *cobra.Command) (monitor.Request, error) {
	flags := cmd.Flags()
	req := monitor.Request{}
	req.ScenarioKey, _ = flags.GetString("scenario")
	req.CarTemp, _ = flags.GetInt("car-temp")
	req.Pet.Name, _ = flags.GetString("name")
	req.Pet.Breed, _ = flags.GetString("breed")
	req.Pet.Age, _ = flags.GetFloat64("age")
	req.Pet.Weight, _ = flags.GetFloat64("weight")
	req.Pet.Sensitivity, _ = flags.GetInt("sensitivity")
	req.Pet.MedicalHistory, _ = flags.GetString("history")
	req.ClientIP = "127.0.0.1"

	if req.ScenarioKey == "" {
		cfg, err := config.Load()
		if err != nil {
			return req, fmt.Errorf("failed to load configuration: %w", err)
		}
		catalog, err := cfg.Catalog()
		if err != nil {
			return req, fmt.Errorf("invalid scenarios: %w", err)
		}
		req.ScenarioKey = catalog.Default().Key
	}
	return req, nil
}

func printReport(r *monitor.Report, output string) error {
	if output == "json" {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:       %s\n", r.ID)
	fmt.Fprintf(&sb, "Scenario:  %s (%s)\n", r.Scenario.Key, r.Scenario.Label)
	fmt.Fprintf(&sb, "Car temp:  %d°C\n", r.CarTemp)
	fmt.Fprintf(&sb, "Pet:       %s\n", r.Pet.Name)
	if r.Observation != nil {
		fmt.Fprintf(&sb, "Detected:  %v\n", r.Observation.SubjectDetected)
		fmt.Fprintf(&sb, "Anxiety:   %s\n", r.Observation.AnxietyLevel)
	}
	fmt.Fprintf(&sb, "Outcome:   %s\n", r.Outcome)
	if r.Error != "" {
		fmt.Fprintf(&sb, "Error:     %s\n", r.Error)
	}
	if len(r.Actions) > 0 {
		sb.WriteString("\nActions:\n")
		for _, act := range r.Actions {
			status := "ok"
			if !act.Success {
				status = "failed"
			}
			fmt.Fprintf(&sb, "  - %-22s %-6s %s\n", act.Name, status, act.Output)
		}
	}
	if r.FinalReport != "" {
		sb.WriteString("\n")
		sb.WriteString(r.FinalReport)
		sb.WriteString("\n")
	}
	fmt.Print(sb.String())
	return nil
}
