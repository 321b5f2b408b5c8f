package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/pawguardian/pkg/db"
)

// migrationsTable keeps golang-migrate state apart from application tables
const migrationsTable = "pawguardian_schema_migrations"

var dbMigrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"up"},
	Short:   "Apply pending schema migrations",
	Long: `Apply every pending migration to DATABASE_URL: the monitor_runs and
monitor_actions tables for run history and the messages table for audit.

Builds tagged embed_migrations use the SQL compiled into the
binary; others read db/migrations or PAWGUARDIAN_MIGRATIONS_PATH.

Example:
  pawguardian db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOn("migrate", runMigrations())
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Revert the most recent schema migrations",
	Long: `Revert the given number of migrations, newest first (default 1).
Reverting past create_monitor_runs drops the run history.

Example:
  pawguardian db down
  pawguardian db down 2`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps, err := parseSteps(args)
		exitOn("down", err)
		exitOn("down", runMigrationsDown(steps))
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the schema version and pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		exitOn("status", showMigrationStatus())
	},
}

func init() {
	for _, c := range []*cobra.Command{dbMigrateCmd, dbMigrateDownCmd, dbMigrateStatusCmd} {
		dbCmd.AddCommand(c)
	}
}

func exitOn(op string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "db %s: %v\n", op, err)
	os.Exit(1)
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", args[0])
	}
	return n, nil
}

// databaseURLWithMigrationsTable returns DATABASE_URL with the custom
// migrations table parameter understood by golang-migrate
func databaseURLWithMigrationsTable() string {
	dbURL := db.URL()
	if dbURL == "" {
		return ""
	}
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + migrationsTable
	}
	return dbURL + "?x-migrations-table=" + migrationsTable
}

func openMigrate() (*migrate.Migrate, error) {
	if !db.Configured() {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	fsys, origin, err := migrationSource()
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations from %s: %w", origin, err)
	}
	fmt.Printf("Using %s migrations\n", origin)
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURLWithMigrationsTable())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// upMigrations lists the up files of a migration source
func upMigrations(fsys fs.FS) ([]string, error) {
	return fs.Glob(fsys, "*.up.sql")
}

// withMigrate opens a migrator for the duration of fn
func withMigrate(fn func(m *migrate.Migrate) error) error {
	m, err := openMigrate()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	return fn(m)
}

// schemaVersion is 0 before the first migration
func schemaVersion(m *migrate.Migrate) (uint64, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(v), dirty, nil
}

func runMigrations() error {
	return withMigrate(func(m *migrate.Migrate) error {
		from, dirty, err := schemaVersion(m)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty; fix it by hand and force the version", from)
		}

		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Printf("Schema already at version %d\n", from)
			return nil
		}
		if err != nil {
			return fmt.Errorf("up from version %d: %w", from, err)
		}

		to, _, _ := schemaVersion(m)
		fmt.Printf("Schema migrated from version %d to %d\n", from, to)
		return nil
	})
}

func runMigrationsDown(steps int) error {
	return withMigrate(func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("reverting %d migration(s): %w", steps, err)
		}
		to, _, err := schemaVersion(m)
		if err != nil {
			return err
		}
		if to == 0 {
			fmt.Println("Schema reverted to empty")
			return nil
		}
		fmt.Printf("Schema reverted to version %d\n", to)
		return nil
	})
}

func showMigrationStatus() error {
	return withMigrate(func(m *migrate.Migrate) error {
		current, dirty, err := schemaVersion(m)
		if err != nil {
			return err
		}
		state := ""
		if dirty {
			state = " (dirty)"
		}
		fmt.Printf("Schema version: %d%s\n", current, state)

		fsys, _, err := migrationSource()
		if err != nil {
			return err
		}
		files, err := upMigrations(fsys)
		if err != nil {
			return fmt.Errorf("failed to list migrations: %w", err)
		}
		pending := pendingMigrations(files, current)
		if len(pending) == 0 {
			fmt.Println("Up to date")
			return nil
		}
		fmt.Printf("%d pending:\n", len(pending))
		for _, f := range pending {
			fmt.Printf("  %s\n", f)
		}
		return nil
	})
}

// pendingMigrations returns the up files whose version is above current,
// in order
func pendingMigrations(files []string, current uint64) []string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var pending []string
	for _, name := range sorted {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		if v > current {
			pending = append(pending, name)
		}
	}
	return pending
}
