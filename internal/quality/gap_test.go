package quality

import (
	"testing"

	"mediaqa/internal/models"
)

func TestGapWarningAtExactlyTenPoints(t *testing.T) {
	g := Gap(1000, 900)
	if g.CoveragePct != 90.0 {
		t.Fatalf("coverage: expected 90.0, got %v", g.CoveragePct)
	}
	if g.CoverageGapPct != 10.0 {
		t.Fatalf("gap: expected 10.0, got %v", g.CoverageGapPct)
	}
	if g.MissingValue != 100 {
		t.Fatalf("missing: expected 100, got %v", g.MissingValue)
	}
	if g.Severity != models.SeverityWarning {
		t.Fatalf("severity: expected WARNING, got %s", g.Severity)
	}
}

func TestGapZeroAllTotalIsFullCoverage(t *testing.T) {
	// sin total "All" no hay nada que reconciliar, y nada que dividir
	for _, dimTotal := range []float64{0, 500, -3} {
		g := Gap(0, dimTotal)
		if g.CoveragePct != 100 {
			t.Fatalf("dimTotal=%v: expected coverage 100, got %v", dimTotal, g.CoveragePct)
		}
		if g.Severity != models.SeverityOK {
			t.Fatalf("dimTotal=%v: expected OK, got %s", dimTotal, g.Severity)
		}
	}
}

func TestGapSeverityBuckets(t *testing.T) {
	cases := []struct {
		allTotal, dimTotal float64
		want               string
	}{
		{1000, 1000, models.SeverityOK},
		{1000, 905, models.SeverityOK},       // gap 9.5
		{1000, 900, models.SeverityWarning},  // gap 10 exacto
		{1000, 800, models.SeverityWarning},  // gap 20 exacto
		{1000, 799, models.SeverityCritical}, // gap 20.1
		{1000, 0, models.SeverityCritical},
	}
	for _, c := range cases {
		g := Gap(c.allTotal, c.dimTotal)
		if g.Severity != c.want {
			t.Fatalf("Gap(%v, %v): expected %s, got %s (gap %v)", c.allTotal, c.dimTotal, c.want, g.Severity, g.CoverageGapPct)
		}
	}
}

func TestGapOverReportingIsNotClamped(t *testing.T) {
	g := Gap(100, 120)
	if g.CoveragePct != 120 {
		t.Fatalf("expected coverage 120, got %v", g.CoveragePct)
	}
	if g.CoverageGapPct != -20 {
		t.Fatalf("expected gap -20, got %v", g.CoverageGapPct)
	}
	if g.Severity != models.SeverityOK {
		t.Fatalf("expected OK, got %s", g.Severity)
	}
}

func TestSumMetricWithPredicate(t *testing.T) {
	rows := []models.Row{
		mkRow("FR", models.DimensionModel, 10, 0, 0, 0, 100),
		mkRow("FR", models.DimensionModel, 20, 0, 0, 0, 200),
		mkRow("FR", models.DimensionModel, 30, 0, 0, 0, 300),
	}
	rows[0].Model = "alpha"
	rows[1].Model = "beta"
	rows[2].Model = "alpha"

	total := SumMetric(rows, models.MetricNVWR, nil)
	if total != 600 {
		t.Fatalf("expected 600, got %v", total)
	}
	alpha := SumMetric(rows, models.MetricNVWR, func(r models.Row) bool { return r.Model == "alpha" })
	if alpha != 400 {
		t.Fatalf("expected 400, got %v", alpha)
	}
}

func TestFilterSentinels(t *testing.T) {
	rows := []models.Row{
		mkRow("FR", models.DimensionAll, 1, 0, 0, 0, 0),
		mkRow("BE", models.DimensionAll, 1, 0, 0, 0, 0),
		mkRow("FR", models.DimensionModel, 1, 0, 0, 0, 0),
	}
	rows[1].Month = 7

	if got := len(Filter(rows, models.DimensionAll, models.MarketAll, models.PeriodAll)); got != 2 {
		t.Fatalf("all/all: expected 2, got %d", got)
	}
	if got := len(Filter(rows, models.DimensionAll, "FR", "2025-06")); got != 1 {
		t.Fatalf("FR/2025-06: expected 1, got %d", got)
	}
	if got := len(Filter(rows, models.DimensionAll, models.MarketAll, "2025-07")); got != 1 {
		t.Fatalf("all/2025-07: expected 1, got %d", got)
	}
}

// mkRow arma una fila mensual con los cinco valores de métrica.
func mkRow(market, dim string, mediaCost, impressions, clicks, iv, nvwr float64) models.Row {
	return models.Row{
		Market: market, Year: 2025, Month: 6, Dimension: dim,
		MediaCost: mediaCost, Impressions: impressions, Clicks: clicks, IV: iv, NVWR: nvwr,
	}
}
