package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
)

// scenariosCmd represents the scenarios command
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the surveillance scenarios",
	Long: `List the surveillance scenarios from the config file, or the built-in
catalog when none are configured. The first scenario is the default.

Example:
  pawguardian scenarios
  pawguardian scenarios --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		if err := listScenarios(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list scenarios: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	scenariosCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func listScenarios(output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("invalid scenarios: %w", err)
	}

	if output == "json" {
		data, err := json.MarshalIndent(catalog.All(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-16s %-44s %s\n", "KEY", "URI", "LABEL")
	for _, s := range catalog.All() {
		fmt.Printf("%-16s %-44s %s\n", s.Key, s.URI, s.Label)
	}
	return nil
}
