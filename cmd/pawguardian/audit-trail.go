package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/audit"
)

// auditTrailCmd represents the audit trail command
var auditTrailCmd = &cobra.Command{
	Use:   "trail <run-id>",
	Short: "Print every audit event of a run",
	Long: `Print the run and intervention events recorded for one run, oldest first.

Requires AUDIT_DATABASE_URL.

Example:
  pawguardian audit trail 6f1c2d5e-0a7b-4d8e-9f3a-1b2c3d4e5f60
  pawguardian audit trail 6f1c2d5e-0a7b-4d8e-9f3a-1b2c3d4e5f60 -o json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		store, err := audit.OpenStore(os.Getenv("AUDIT_DATABASE_URL"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if store == nil {
			fmt.Fprintln(os.Stderr, "AUDIT_DATABASE_URL is not set")
			os.Exit(1)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, err := store.Trail(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if err := printTrail(os.Stdout, entries, output); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	auditTrailCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	auditCmd.AddCommand(auditTrailCmd)
}

var severityNames = [...]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

func severityName(s audit.Severity) string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("sev%d", s)
	}
	return severityNames[s]
}

func printTrail(w io.Writer, entries []audit.Entry, output string) error {
	switch strings.ToLower(output) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No audit events recorded for this run")
			return err
		}
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s %-7s %-12s %s\n",
				e.Timestamp.UTC().Format(time.RFC3339), severityName(e.Severity), e.MessageID, e.Text); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
