package quality

import "mediaqa/internal/models"

// Comprehensive runs the full market × dimension matrix for one
// selection. market is a code or "all"; period is YYYY-MM or "all".
// The report is a pure function of rows: same input, same bytes.
func Comprehensive(rows []models.Row, market, period string) models.ComprehensiveReport {
	rep := models.ComprehensiveReport{
		Market:         market,
		Period:         period,
		Grade:          models.GradeF,
		Dimensions:     []models.DimensionQualityReport{},
		MarketAnalysis: []models.MarketQuality{},
		CriticalIssues: []models.Recommendation{},
	}

	allRows := Filter(rows, models.DimensionAll, market, period)
	if len(allRows) == 0 {
		rep.Error = models.NoAllData
		return rep
	}

	markets := Markets(allRows)
	allTotals := TotalsFor(allRows)

	var scoreSum float64
	var nonZero int
	for _, dim := range models.SlicedDimensions {
		dr := ScoreDimension(allTotals, Filter(rows, dim, market, period), dim)
		dr.AllRecords = len(allRows)
		dr.Markets = MarketBreakdowns(rows, markets, dim, period)
		rep.Dimensions = append(rep.Dimensions, dr)

		scoreSum += dr.OverallScore
		if dr.OverallScore > 0 {
			nonZero++
		}
		for _, rec := range dr.Recommendations {
			if rec.Priority == models.PriorityHigh {
				rep.CriticalIssues = append(rep.CriticalIssues, rec)
			}
		}
	}

	n := len(models.SlicedDimensions)
	rep.OverallScore = round2(scoreSum / float64(n)) // promedio sin pesos entre dimensiones
	rep.DataCompleteness = round2(float64(nonZero) / float64(n) * 100)
	rep.Grade = GradeFor(rep.OverallScore)
	rep.MarketAnalysis = marketAnalysis(rep.Dimensions, markets)
	return rep
}

// marketAnalysis rolls the per-dimension breakdowns up to one line per
// market and flags every dimension sitting below 80% coverage there.
func marketAnalysis(dims []models.DimensionQualityReport, markets []string) []models.MarketQuality {
	out := make([]models.MarketQuality, 0, len(markets))
	for i, mkt := range markets {
		mq := models.MarketQuality{Market: mkt, Issues: []models.MarketIssue{}}

		var sum float64
		var n int
		for _, d := range dims {
			bd := d.Markets[i]
			if bd.Error != "" {
				continue
			}
			sum += bd.CoveragePct
			n++
			if bd.CoveragePct < 80 {
				sev := models.SeverityWarning
				if bd.CoveragePct < 60 {
					sev = models.SeverityCritical
				}
				mq.Issues = append(mq.Issues, models.MarketIssue{
					Dimension:   d.Dimension,
					CoveragePct: bd.CoveragePct,
					Severity:    sev,
				})
			}
		}

		if n == 0 {
			mq.Error = models.NoAllData
			mq.Grade = models.GradeF
		} else {
			mq.OverallCoverage = round2(sum / float64(n))
			mq.Grade = GradeFor(mq.OverallCoverage)
		}
		out = append(out, mq)
	}
	return out
}
