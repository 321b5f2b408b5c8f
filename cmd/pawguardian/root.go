package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/endpoints"
)

var rootCmd = &cobra.Command{
	Use:     "pawguardian",
	Short:   "Autonomous in-car pet safety monitor",
	Long:    `PawGuardian watches a pet left in a parked car and intervenes when it is in danger.`,
	Version: endpoints.DefaultVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
