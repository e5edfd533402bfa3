package store

import (
	"context"
	"slices"
	"sync"

	"bibhub/internal/query"
	"bibhub/pkg/models"
)

// Memory keeps the corpus and run log in process memory.
type Memory struct {
	mu      sync.RWMutex
	records []models.Restaurant
	runs    []models.PipelineRun
}

func NewMemory(records ...models.Restaurant) *Memory {
	return &Memory{records: cloneAll(records)}
}

func (m *Memory) ReplaceAll(ctx context.Context, records []models.Restaurant) error {
	if err := ctx.Err(); err != nil {
		return writeFailed("replace", err)
	}
	next := cloneAll(records)
	m.mu.Lock()
	m.records = next
	m.mu.Unlock()
	return nil
}

func (m *Memory) ReadAll(ctx context.Context) ([]models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.records), nil
}

func (m *Memory) Find(ctx context.Context, f query.Filter) ([]models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Restaurant, 0)
	for _, r := range m.records {
		if f.Match(r) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id int) (*models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			c := clone(r)
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) CookingTypes(ctx context.Context, distinction string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return query.Cuisines(m.records, distinction), nil
}

func (m *Memory) SaveRun(ctx context.Context, run models.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) Runs(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.runs)
	slices.Reverse(out)
	if n := runsLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// clone copies r, including its coordinates, so callers never share state
// with the store.
func clone(r models.Restaurant) models.Restaurant {
	if r.Coordinates != nil {
		c := *r.Coordinates
		r.Coordinates = &c
	}
	return r
}

func cloneAll(records []models.Restaurant) []models.Restaurant {
	out := make([]models.Restaurant, len(records))
	for i, r := range records {
		out[i] = clone(r)
	}
	return out
}
