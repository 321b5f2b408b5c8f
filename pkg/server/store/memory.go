package store

import (
	"context"
	"sort"
	"sync"

	"github.com/doodlesbykumbi/pawguardian/pkg/model"
)

var (
	_ RunsStore   = (*MemoryStore)(nil)
	_ HealthStore = (*MemoryStore)(nil)
)

// MemoryStore keeps runs in process memory. It is used when no database is
// configured; history is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]model.Run)}
}

func (m *MemoryStore) SaveRun(_ context.Context, run *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = cloneRun(*run, true)
	return nil
}

func (m *MemoryStore) FetchRun(_ context.Context, id string) (*model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := cloneRun(run, true)
	return &out, nil
}

func (m *MemoryStore) ListRuns(_ context.Context, limit, offset int) ([]model.Run, error) {
	m.mu.RLock()
	all := make([]model.Run, 0, len(m.runs))
	for _, r := range m.runs {
		all = append(all, cloneRun(r, false))
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].StartedAt.After(all[j].StartedAt)
	})

	if offset >= len(all) {
		return []model.Run{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) CountRuns(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.runs)), nil
}

// CheckConnectivity always succeeds
func (m *MemoryStore) CheckConnectivity(_ context.Context) error {
	return nil
}

func cloneRun(r model.Run, withActions bool) model.Run {
	r.Observation = append([]byte(nil), r.Observation...)
	if !withActions {
		r.Actions = nil
		return r
	}
	actions := make([]model.Action, len(r.Actions))
	for i, a := range r.Actions {
		a.Args = append([]byte(nil), a.Args...)
		actions[i] = a
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].Seq < actions[j].Seq })
	r.Actions = actions
	return r
}
