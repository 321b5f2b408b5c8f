package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/pawguardian/db"
	pgdb "github.com/doodlesbykumbi/pawguardian/pkg/db"
)

// serverMode picks how StartServer runs PawGuardian
type serverMode int

const (
	// modeBinary execs a built pawguardian (PAWGUARDIAN_BINARY)
	modeBinary serverMode = iota
	// modeInline serves from this test process (PAWGUARDIAN_INLINE=1)
	modeInline
)

const usage = `set PAWGUARDIAN_BINARY or PAWGUARDIAN_INLINE=1

  go build -o pawguardian ./cmd/pawguardian
  INTEGRATION_TEST=1 PAWGUARDIAN_BINARY=$(pwd)/pawguardian go test -v ./test/integration/...

  INTEGRATION_TEST=1 PAWGUARDIAN_INLINE=1 go test -v ./test/integration/...`

// TestContext is the postgres container shared by every scenario
type TestContext struct {
	// DB is used by steps to assert on stored runs
	DB          *gorm.DB
	Container   testcontainers.Container
	DatabaseURL string
	HTTPClient  *http.Client

	Mode       serverMode
	BinaryPath string
}

func modeFromEnv() (serverMode, string, error) {
	if os.Getenv("PAWGUARDIAN_INLINE") == "1" {
		return modeInline, "", nil
	}
	bin := os.Getenv("PAWGUARDIAN_BINARY")
	if bin == "" {
		return 0, "", errors.New(usage)
	}
	if _, err := os.Stat(bin); err != nil {
		return 0, "", fmt.Errorf("PAWGUARDIAN_BINARY: %w", err)
	}
	return modeBinary, bin, nil
}

// NewTestContext starts postgres, applies the schema and connects to it
func NewTestContext(ctx context.Context) (*TestContext, error) {
	mode, bin, err := modeFromEnv()
	if err != nil {
		return nil, err
	}
	if mode == modeInline {
		log.Println("integration: serving in-process")
	} else {
		log.Printf("integration: serving from %s", bin)
	}

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pawguardian_test"),
		tcpostgres.WithUsername("pawguardian"),
		tcpostgres.WithPassword("pawguardian"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}

	tc := &TestContext{
		Container:  container,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Mode:       mode,
		BinaryPath: bin,
	}

	tc.DatabaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	if err := applySchema(tc.DatabaseURL); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	tc.DB, err = pgdb.Connect(ctx, pgdb.Config{URL: tc.DatabaseURL, MaxOpenConns: 2})
	if err != nil {
		tc.Close(ctx)
		return nil, err
	}
	return tc, nil
}

// applySchema runs the migrations compiled into the db package, the set a
// binary built with -tags embed_migrations would apply
func applySchema(dbURL string) error {
	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL+"&x-migrations-table=pawguardian_schema_migrations")
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// waitForServer polls /healthz until it answers 200
func waitForServer(ctx context.Context, serverURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/healthz", nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not healthy after %v", serverURL, timeout)
		case <-tick.C:
		}
	}
}

// Close drops the connection and the container
func (tc *TestContext) Close(ctx context.Context) {
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
