package quality

import (
	"sort"

	"mediaqa/internal/models"
)

// SumMetric adds up one metric over rows, optionally filtered by keep.
// Metric values were coerced to numbers at the ingestion boundary, so a
// sum never fails; negative values flow through untouched.
func SumMetric(rows []models.Row, m models.Metric, keep func(models.Row) bool) float64 {
	var total float64
	for _, r := range rows {
		if keep != nil && !keep(r) {
			continue
		}
		total += r.MetricValue(m)
	}
	return total
}

// TotalsFor computes the five core sums in one pass.
func TotalsFor(rows []models.Row) models.MetricTotals {
	var t models.MetricTotals
	for _, r := range rows {
		t.MediaCost += r.MediaCost
		t.Impressions += r.Impressions
		t.Clicks += r.Clicks
		t.IV += r.IV
		t.NVWR += r.NVWR
	}
	return t
}

// Filter keeps rows matching dimension, market and period. Market and
// period accept the "all" sentinels; dimension is always literal.
func Filter(rows []models.Row, dimension, market, period string) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if r.Dimension != dimension {
			continue
		}
		if market != models.MarketAll && r.Market != market {
			continue
		}
		if period != models.PeriodAll && r.Period() != period {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Markets returns the distinct market codes in rows, sorted.
func Markets(rows []models.Row) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Market]; ok {
			continue
		}
		seen[r.Market] = struct{}{}
		out = append(out, r.Market)
	}
	sort.Strings(out) // orden determinista
	return out
}
