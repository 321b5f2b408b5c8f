package endpoints

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/pawguardian/pkg/audit"
	"github.com/doodlesbykumbi/pawguardian/pkg/config"
	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/monitor"
	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
	"github.com/doodlesbykumbi/pawguardian/pkg/server"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

func init() {
	audit.SetEnabled(false)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSigner implements server.VideoSigner for testing using testify/mock
type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) URLFor(ctx context.Context, uri string) (string, error) {
	args := m.Called(ctx, uri)
	return args.String(0), args.Error(1)
}

// MockObserver implements llm.Observer for testing using testify/mock
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Observe(ctx context.Context, uri, mimeType, prompt string) (string, error) {
	args := m.Called(ctx, uri, mimeType, prompt)
	return args.String(0), args.Error(1)
}

// stubExecutor answers every tool call successfully without side effects
type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, call llm.FunctionCall) tools.Result {
	return tools.Result{Name: call.Name, Args: call.Args, Output: "ok: " + call.Name, Success: true}
}

type testEnv struct {
	srv      *server.Server
	store    *store.MemoryStore
	observer *MockObserver
	signer   *MockSigner
	health   *MockHealthStore
}

func newTestEnv(cfg *config.Config) *testEnv {
	if cfg == nil {
		cfg = &config.Config{}
	}
	env := &testEnv{
		store:    store.NewMemoryStore(),
		observer: &MockObserver{},
		signer:   &MockSigner{},
		health:   &MockHealthStore{},
	}

	ids := 0
	m := &monitor.Monitor{
		Catalog:  scenario.MustBuiltinCatalog(),
		Observer: env.observer,
		Agent:    monitor.RuleAgent{},
		Executor: stubExecutor{},
		Store:    env.store,
		NewID: func() string {
			ids++
			return "run-" + string(rune('0'+ids))
		},
		Now: func() time.Time { return time.Date(2025, 3, 1, 10, 0, ids, 0, time.UTC) },
	}

	env.srv = server.NewServer(cfg, m, env.signer, env.health, "127.0.0.1", "0")
	env.srv.Version = "1.2.3"
	RegisterAll(env.srv)
	return env
}
