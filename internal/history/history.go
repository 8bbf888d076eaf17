// Package history persists score snapshots across runs so month-over-month
// deltas survive restarts. Three backends share one contract: in-memory
// (default), Badger (embedded, single node) and Postgres (shared).
package history

import (
	"context"
	"fmt"
	"sort"

	"mediaqa/internal/models"
)

// Filter selects snapshots. Zero values match everything, so an empty
// Filter returns the full history.
type Filter struct {
	Market    string
	Year      int
	Month     int
	Dimension string
}

func (f Filter) matches(s models.Snapshot) bool {
	if f.Market != "" && s.Market != f.Market {
		return false
	}
	if f.Year != 0 && s.Year != f.Year {
		return false
	}
	if f.Month != 0 && s.Month != f.Month {
		return false
	}
	if f.Dimension != "" && s.Dimension != f.Dimension {
		return false
	}
	return true
}

// Store is the snapshot backend. Upsert overwrites on key collision
// (market, year, month, dimension); reads return newest-first. A Store
// must be safe for concurrent use.
type Store interface {
	Upsert(ctx context.Context, s models.Snapshot) error
	Query(ctx context.Context, f Filter, limit int) ([]models.Snapshot, error)
	// Trend returns up to lookback of the newest snapshots for one
	// market and dimension.
	Trend(ctx context.Context, market, dimension string, lookback int) ([]models.Snapshot, error)
	Clear(ctx context.Context) error
	Close() error
}

func key(market string, year, month int, dimension string) string {
	return fmt.Sprintf("%s|%04d-%02d|%s", market, year, month, dimension)
}

// sortSnapshots orders newest period first, then market and dimension
// for a stable tail.
func sortSnapshots(snaps []models.Snapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		a, b := snaps[i], snaps[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Dimension < b.Dimension
	})
}

func clip(snaps []models.Snapshot, limit int) []models.Snapshot {
	if limit > 0 && len(snaps) > limit {
		return snaps[:limit]
	}
	return snaps
}
