package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// secretsCmd represents the secrets command
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Inspect notification credentials",
	Long:  `Inspect the Twilio credentials used for owner alerts.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'secrets' requires a subcommand (check)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(secretsCmd)
}
