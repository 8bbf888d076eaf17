package quality

import "mediaqa/internal/models"

// Gap reconciles one metric: how much of the unsliced total the
// dimension rows account for. allTotal == 0 counts as full coverage,
// there is nothing to reconcile against, and the division stays safe.
// Coverage above 100 (dimension over-reporting) is kept as-is.
func Gap(allTotal, dimensionTotal float64) models.GapResult {
	coverage := 100.0
	if allTotal != 0 {
		coverage = round2(dimensionTotal / allTotal * 100)
	}
	gap := 100 - coverage
	return models.GapResult{
		CoveragePct:    coverage,
		CoverageGapPct: gap,
		MissingValue:   allTotal * gap / 100,
		Severity:       severityFor(gap),
	}
}

// severityFor buckets a coverage gap. Exactly 10 points missing is
// already a WARNING; above 20 is CRITICAL.
func severityFor(gap float64) string {
	switch {
	case gap > 20:
		return models.SeverityCritical
	case gap >= 10:
		return models.SeverityWarning
	}
	return models.SeverityOK
}

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
