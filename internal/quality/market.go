package quality

import "mediaqa/internal/models"

// MarketBreakdowns repeats the gap analysis of one dimension for each
// market, each against that market's own "All" totals. The result slice
// follows the markets argument order.
func MarketBreakdowns(rows []models.Row, markets []string, dimension, period string) []models.MarketBreakdown {
	out := make([]models.MarketBreakdown, 0, len(markets))
	for _, mkt := range markets {
		out = append(out, marketBreakdown(rows, mkt, dimension, period))
	}
	return out
}

func marketBreakdown(rows []models.Row, market, dimension, period string) models.MarketBreakdown {
	allRows := Filter(rows, models.DimensionAll, market, period)
	if len(allRows) == 0 {
		return models.MarketBreakdown{Market: market, Error: models.NoAllData}
	}

	dimRows := Filter(rows, dimension, market, period)
	gaps := gapsFor(TotalsFor(allRows), dimRows)

	var coverage float64
	for _, m := range models.CoreMetrics {
		coverage += models.MetricWeights[m] * gapOf(gaps, m).CoveragePct
	}

	return models.MarketBreakdown{
		Market:           market,
		CoveragePct:      round2(coverage),
		Gaps:             gaps,
		AllRecords:       len(allRows),
		DimensionRecords: len(dimRows),
	}
}
