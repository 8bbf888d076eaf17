package history

import (
	"context"
	"sync"

	"mediaqa/internal/models"
)

// MemoryStore keeps snapshots in a map. Good enough for a single
// process; everything is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]models.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: map[string]models.Snapshot{}}
}

func (m *MemoryStore) Upsert(_ context.Context, s models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[key(s.Market, s.Year, s.Month, s.Dimension)] = s
	return nil
}

func (m *MemoryStore) Query(_ context.Context, f Filter, limit int) ([]models.Snapshot, error) {
	m.mu.RLock()
	out := make([]models.Snapshot, 0, len(m.snaps))
	for _, s := range m.snaps {
		if f.matches(s) {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sortSnapshots(out)
	return clip(out, limit), nil
}

func (m *MemoryStore) Trend(ctx context.Context, market, dimension string, lookback int) ([]models.Snapshot, error) {
	return m.Query(ctx, Filter{Market: market, Dimension: dimension}, lookback)
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = map[string]models.Snapshot{}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
