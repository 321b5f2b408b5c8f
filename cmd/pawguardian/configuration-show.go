package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show each configuration attribute and where it came from",
	Long: `Show each configuration attribute, its value and its source
(default, config file or environment). api_token_key is masked.

This reads the sources as they are now; a running server only sees
changes to the config file when started with --watch-config.

Config file location: /etc/pawguardian/pawguardian.yml (or PAWGUARDIAN_CONFIG_PATH)

Example:
  pawguardian configuration show
  pawguardian configuration show --output json
  pawguardian configuration show --strict   # exit 1 on an invalid config`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		strict, _ := cmd.Flags().GetBool("strict")

		if err := showConfiguration(os.Stdout, output, strict); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	configurationShowCmd.Flags().Bool("strict", false, "Fail when the configuration does not validate")
}

// showConfiguration prints the attributes, then either warns about or,
// with strict, fails on a configuration the server would reject
func showConfiguration(w io.Writer, output string, strict bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch output {
	case "json":
		js, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, js)
	case "text", "":
		fmt.Fprint(w, cfg.FormatText())
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	invalid := cfg.Validate()
	switch {
	case invalid == nil:
		return nil
	case strict:
		return fmt.Errorf("invalid configuration: %w", invalid)
	default:
		if output != "json" {
			fmt.Fprintf(w, "\nWarning: %v\n", invalid)
		}
		return nil
	}
}
