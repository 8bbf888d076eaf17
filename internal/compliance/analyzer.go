package compliance

import (
	"math"
	"sort"
	"strings"

	"mediaqa/internal/models"
)

// IsUnmapped reports whether a categorical value was left unfilled
// upstream: empty, whitespace-only, or carrying "not mapped" in any
// casing anywhere in the value ("Not Mapped Channel" counts).
func IsUnmapped(v string) bool {
	t := strings.TrimSpace(v)
	if t == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t), "not mapped")
}

// Analyze builds the per-market mapping-compliance report for one
// period. rows must be the period's unsliced ("All" dimension) records.
// prior maps market to the previous period's compliancePct; markets
// missing from prior get a nil MoMChange, rendered as JSON null.
//
// A row counts as unmapped if ANY tracked field is unmapped, and its
// full NVWR counts as at-risk once, no matter how many fields failed.
func Analyze(rows []models.Row, period string, prior map[string]float64) models.ComplianceReport {
	perMarket := map[string]*models.MarketComplianceRecord{}
	for _, r := range rows {
		rec, ok := perMarket[r.Market]
		if !ok {
			rec = &models.MarketComplianceRecord{Market: r.Market, Period: period}
			perMarket[r.Market] = rec
		}
		rec.TotalRecords++
		rec.TotalNVWR += r.NVWR

		unmapped := false
		if IsUnmapped(r.Model) {
			rec.UnmappedByField.Model++
			unmapped = true
		}
		if IsUnmapped(r.Phase) {
			rec.UnmappedByField.Phase++
			unmapped = true
		}
		if IsUnmapped(r.ChannelType) {
			rec.UnmappedByField.ChannelType++
			unmapped = true
		}
		if IsUnmapped(r.ChannelName) {
			rec.UnmappedByField.ChannelName++
			unmapped = true
		}
		if IsUnmapped(r.CampaignType) {
			rec.UnmappedByField.CampaignType++
			unmapped = true
		}

		if unmapped {
			rec.UnmappedRecords++
			rec.UnmappedNVWR += r.NVWR
		} else {
			rec.MappedRecords++
		}
	}

	markets := make([]string, 0, len(perMarket))
	for mkt := range perMarket {
		markets = append(markets, mkt)
	}
	sort.Strings(markets) // orden determinista

	report := models.ComplianceReport{
		Period:  period,
		Markets: make([]models.MarketComplianceRecord, 0, len(markets)),
	}
	var mapped int
	for _, mkt := range markets {
		rec := perMarket[mkt]
		rec.CompliancePct = sharePct(rec.MappedRecords, rec.TotalRecords)
		rec.UnmappedNVWRPct = round2(safeDivF(rec.UnmappedNVWR, rec.TotalNVWR) * 100)
		rec.Status = statusFor(rec.CompliancePct)
		if prev, ok := prior[mkt]; ok {
			rec.MoMChange = momChange(rec.CompliancePct, prev)
		}
		report.TotalRecords += rec.TotalRecords
		mapped += rec.MappedRecords
		report.Markets = append(report.Markets, *rec)
	}
	report.CompliancePct = sharePct(mapped, report.TotalRecords)
	return report
}

// momChange compares against the prior period's snapshot. Deltas within
// ±0.01 points count as flat.
func momChange(current, previous float64) *models.MoMChange {
	delta := round2(current - previous)
	dir := models.DirectionFlat
	switch {
	case delta > 0.01:
		dir = models.DirectionUp
	case delta < -0.01:
		dir = models.DirectionDown
	}
	return &models.MoMChange{Percentage: delta, Direction: dir}
}

// statusFor buckets a compliance percentage for dashboards.
func statusFor(compliance float64) string {
	switch {
	case compliance >= 95:
		return models.StatusGreen
	case compliance >= 90:
		return models.StatusYellow
	case compliance >= 80:
		return models.StatusOrange
	}
	return models.StatusRed
}

// sharePct is part/total as a percentage; an empty total is full
// compliance, not a division error.
func sharePct(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return round2(float64(part) / float64(total) * 100)
}

func safeDivF(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

// round2 must stay correct for negative deltas, so no truncation tricks.
func round2(f float64) float64 { return math.Round(f*100) / 100 }
