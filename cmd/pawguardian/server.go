package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/db"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/endpoints"
)

// envOr returns the named variable, or def when it is unset
func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func defaultBindAddress() string { return envOr("BIND_ADDRESS", "0.0.0.0") }

func defaultPort() string { return envOr("PORT", "8080") }

// defaultPortInt is defaultPort for flags typed as int; a PORT that is not
// a number falls back to 8080
func defaultPortInt() int {
	p, err := strconv.Atoi(defaultPort())
	if err != nil {
		return 8080
	}
	return p
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the PawGuardian dashboard and API server",
	Long: `Run the PawGuardian dashboard and API server.

Run history is stored in PostgreSQL when DATABASE_URL is set, and in memory
otherwise. When a database is configured, migrations are run on startup.
Use --no-migrate to skip.

Example:
  pawguardian server
  pawguardian server --port 3000 --enable-cors
  pawguardian server --offline`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("enable-cors") {
			cfg.EnableCORS, _ = cmd.Flags().GetBool("enable-cors")
		}
		if cmd.Flags().Changed("enable-xsrf-protection") {
			cfg.EnableXSRFProtection, _ = cmd.Flags().GetBool("enable-xsrf-protection")
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if db.Configured() && !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
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

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(cfg, a.Monitor, a.Signer, a.Health, host, port)
		endpoints.RegisterAll(s)

		watch, _ := cmd.Flags().GetBool("watch-config")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Printf("Running server at http://%s...\n", s.Addr())
			return s.Start(gctx)
		})
		if watch {
			g.Go(func() error {
				err := config.Watch(gctx, func(updated *config.Config) {
					catalog, err := updated.Catalog()
					if err != nil {
						log.Printf("config: keeping scenarios: %v", err)
						return
					}
					a.Monitor.SetCatalog(catalog)
					a.Signer.Purge()
					log.Printf("config: %d scenario(s) loaded", len(catalog.Keys()))
				})
				if err != nil {
					// The server keeps running with the catalog it started with.
					log.Printf("config: not watching %s: %v", config.FilePath(), err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("enable-cors", false, "allow cross-origin requests (overrides config)")
	serverCmd.Flags().Bool("enable-xsrf-protection", false, "reject cross-site POST requests (overrides config)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload the scenario catalog when the config file changes")
	serverCmd.Flags().Bool("offline", false, "use the rule agent and a static observer instead of Vertex AI")
	serverCmd.Flags().String("observation", "", "observer answer (JSON) overriding the canned offline answers")
}
