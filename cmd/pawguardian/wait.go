package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until a PawGuardian server answers /healthz",
	Long: `Block until a PawGuardian server answers /healthz with a 2xx status.

A server with DATABASE_URL set only reports healthy once PostgreSQL is
reachable, so this is also a readiness check for the run history.

Example:
  pawguardian wait
  pawguardian wait --port 3000 --retries 60 --interval 500ms`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")

		url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/healthz"
		if err := waitHealthy(cmd.Context(), url, retries, interval, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("host", "localhost", "Server host to check")
	waitCmd.Flags().IntP("port", "p", defaultPortInt(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of attempts")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between attempts")
}

// waitHealthy polls url up to retries times, printing a dot per failure
func waitHealthy(ctx context.Context, url string, retries int, interval time.Duration, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: 2 * time.Second}
	fmt.Fprintf(out, "Waiting for %s", url)

	for attempt := 1; attempt <= retries; attempt++ {
		if healthy(ctx, client, url) {
			fmt.Fprintln(out, "\nPawGuardian is ready")
			return nil
		}
		fmt.Fprint(out, ".")
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	fmt.Fprintln(out)
	return fmt.Errorf("no healthy answer after %d attempt(s)", retries)
}

func healthy(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
