package store

import (
	"sort"
	"strings"
	"sync"

	"mediaqa/internal/models"
)

// Unit is one (market, period) scoring unit present in the store.
type Unit struct {
	Market string
	Period string
}

// RowStore holds the ingested monthly rows. Rows are append-only and
// deduplicated by their categorical identity, so re-pushing the same
// extract batch is a no-op.
type RowStore struct {
	mu   sync.RWMutex
	rows []models.Row
	seen map[string]struct{} // idempotencia por-record
}

func NewRowStore() *RowStore {
	return &RowStore{seen: make(map[string]struct{})}
}

// Add appends rows not seen before and reports how many were accepted.
func (s *RowStore) Add(rows ...models.Row) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := 0
	for _, r := range rows {
		k := rowKey(r)
		if _, ok := s.seen[k]; ok {
			continue
		}
		s.seen[k] = struct{}{}
		s.rows = append(s.rows, r)
		accepted++
	}
	return accepted
}

// All returns a copy of every stored row.
func (s *RowStore) All() []models.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Units lists the distinct (market, period) pairs, sorted by period
// then market.
func (s *RowStore) Units(period string) []Unit {
	s.mu.RLock()
	seen := map[Unit]struct{}{}
	for _, r := range s.rows {
		u := Unit{Market: r.Market, Period: r.Period()}
		if period != models.PeriodAll && u.Period != period {
			continue
		}
		seen[u] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]Unit, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { // orden determinista
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Market < out[j].Market
	})
	return out
}

func (s *RowStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// rowKey is the upstream record identity: selection plus the full
// categorical tuple. Metric values are not part of the key, a re-send
// with corrected numbers does not create a second row.
func rowKey(r models.Row) string {
	return strings.Join([]string{
		r.Market, r.Period(), r.Dimension,
		r.Model, r.Phase, r.ChannelType, r.ChannelName, r.CampaignType,
	}, "|")
}
