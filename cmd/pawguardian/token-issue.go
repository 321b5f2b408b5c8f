package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/identity"
)

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue <subject>",
	Short: "Issue a bearer token for the run API",
	Long: `Issue a bearer token for the run API, signed with api_token_key
(PAWGUARDIAN_API_TOKEN_KEY). The subject is recorded in the audit trail of
every run started with the token.

Example:
  pawguardian token issue dashboard
  pawguardian token issue ci --ttl 1h`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := issueToken(args[0], ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

func issueToken(subject string, ttl time.Duration) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.APIAuthEnabled() {
		return "", errors.New("api_token_key is not configured")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("invalid ttl %s", ttl)
	}
	return identity.Issue([]byte(cfg.APITokenKey), subject, ttl, time.Now())
}
