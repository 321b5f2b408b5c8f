package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
)

// secretsCheckCmd represents the secrets check command
var secretsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every notification secret can be read",
	Long: `Check that every notification secret can be read from the configured
source (Secret Manager or the environment). Values are never printed.

Exits non-zero when any secret is missing.

Example:
  pawguardian secrets check
  PAWGUARDIAN_SECRETS_SOURCE=env pawguardian secrets check`,
	Run: func(cmd *cobra.Command, args []string) {
		missing, err := checkSecrets()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to check secrets: %v\n", err)
			os.Exit(1)
		}
		if missing > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	secretsCmd.AddCommand(secretsCheckCmd)
}

func checkSecrets() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &app{Config: cfg}
	defer a.Close()
	src, err := a.openSecrets(ctx, false)
	if err != nil {
		return 0, err
	}

	s, err := secrets.Load(ctx, src)
	if err != nil {
		return 0, err
	}

	fmt.Printf("Source: %s\n\n", cfg.SecretsSource)
	for _, id := range secrets.Required {
		state := "ok"
		if slices.Contains(s.Missing, id) {
			state = "MISSING"
		}
		fmt.Printf("%-22s %s\n", id, state)
	}
	return len(s.Missing), nil
}
