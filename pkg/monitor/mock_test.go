package monitor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/pawguardian/pkg/llm"
	"github.com/doodlesbykumbi/pawguardian/pkg/model"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Observe(ctx context.Context, uri, mimeType, prompt string) (string, error) {
	args := m.Called(ctx, uri, mimeType, prompt)
	return args.String(0), args.Error(1)
}

type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) StartChat(system string, decls []llm.FunctionDeclaration) llm.Chat {
	args := m.Called(system, decls)
	return args.Get(0).(llm.Chat)
}

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Send(ctx context.Context, message string) (*llm.Reply, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Reply), args.Error(1)
}

func (m *MockChat) SendResults(ctx context.Context, results []llm.FunctionResult) (*llm.Reply, error) {
	args := m.Called(ctx, results)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Reply), args.Error(1)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, call llm.FunctionCall) tools.Result {
	args := m.Called(ctx, call)
	return args.Get(0).(tools.Result)
}

type MockRunsStore struct {
	mock.Mock
}

func (m *MockRunsStore) SaveRun(ctx context.Context, run *model.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunsStore) FetchRun(ctx context.Context, id string) (*model.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *MockRunsStore) ListRuns(ctx context.Context, limit, offset int) ([]model.Run, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *MockRunsStore) CountRuns(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
