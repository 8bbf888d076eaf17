package quality

import (
	"fmt"
	"strings"

	"mediaqa/internal/models"
)

// ScoreDimension reconciles one sliced dimension against the unsliced
// totals: five gap checks, a weighted composite, and the actions a
// reviewer should take. Weighting applies within the dimension only.
func ScoreDimension(allTotals models.MetricTotals, dimensionRows []models.Row, dimension string) models.DimensionQualityReport {
	gaps := gapsFor(allTotals, dimensionRows)

	var score float64
	for _, m := range models.CoreMetrics {
		score += models.MetricWeights[m] * gapOf(gaps, m).CoveragePct
	}
	score = round2(score)

	return models.DimensionQualityReport{
		Dimension:        dimension,
		OverallScore:     score,
		Grade:            GradeFor(score),
		Gaps:             gaps,
		Recommendations:  recommend(dimension, gaps),
		DimensionRecords: len(dimensionRows),
	}
}

func gapsFor(allTotals models.MetricTotals, rows []models.Row) models.MetricGaps {
	return models.MetricGaps{
		MediaCost:   Gap(allTotals.MediaCost, SumMetric(rows, models.MetricMediaCost, nil)),
		Impressions: Gap(allTotals.Impressions, SumMetric(rows, models.MetricImpressions, nil)),
		Clicks:      Gap(allTotals.Clicks, SumMetric(rows, models.MetricClicks, nil)),
		IV:          Gap(allTotals.IV, SumMetric(rows, models.MetricIV, nil)),
		NVWR:        Gap(allTotals.NVWR, SumMetric(rows, models.MetricNVWR, nil)),
	}
}

func gapOf(g models.MetricGaps, m models.Metric) models.GapResult {
	switch m {
	case models.MetricMediaCost:
		return g.MediaCost
	case models.MetricImpressions:
		return g.Impressions
	case models.MetricClicks:
		return g.Clicks
	case models.MetricIV:
		return g.IV
	case models.MetricNVWR:
		return g.NVWR
	}
	return models.GapResult{}
}

// recommend turns the gap results into an ordered action list: one HIGH
// summary if anything is CRITICAL, one MEDIUM summary if anything is
// WARNING, then a LOW line per metric whose gap exceeds 5 points.
func recommend(dimension string, gaps models.MetricGaps) []models.Recommendation {
	var critical, warning []string
	for _, m := range models.CoreMetrics {
		switch gapOf(gaps, m).Severity {
		case models.SeverityCritical:
			critical = append(critical, string(m))
		case models.SeverityWarning:
			warning = append(warning, string(m))
		}
	}

	recs := []models.Recommendation{}
	if len(critical) > 0 {
		recs = append(recs, models.Recommendation{
			Priority:  models.PriorityHigh,
			Dimension: dimension,
			Message:   fmt.Sprintf("Critical coverage gaps in %s: %s. Review the %s extract for missing rows.", dimension, strings.Join(critical, ", "), dimension),
		})
	}
	if len(warning) > 0 {
		recs = append(recs, models.Recommendation{
			Priority:  models.PriorityMedium,
			Dimension: dimension,
			Message:   fmt.Sprintf("Coverage below target in %s: %s. Verify upstream mappings.", dimension, strings.Join(warning, ", ")),
		})
	}
	for _, m := range models.CoreMetrics {
		g := gapOf(gaps, m)
		if g.CoverageGapPct > 5 {
			recs = append(recs, models.Recommendation{
				Priority:  models.PriorityLow,
				Dimension: dimension,
				Metric:    string(m),
				Message:   fmt.Sprintf("%s coverage in %s is %.2f%% (gap %.2f%%).", m, dimension, g.CoveragePct, g.CoverageGapPct),
			})
		}
	}
	return recs
}

// GradeFor maps a composite score to its letter. 95 on the nose is
// still an A; only strictly above 95 reaches A+.
func GradeFor(score float64) string {
	switch {
	case score > 95:
		return models.GradeAPlus
	case score >= 90:
		return models.GradeA
	case score >= 80:
		return models.GradeB
	case score >= 70:
		return models.GradeC
	case score >= 60:
		return models.GradeD
	}
	return models.GradeF
}
