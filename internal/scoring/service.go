// Package scoring drives the full pass: for every (market, period) unit
// it reconciles the six extracts, analyzes mapping compliance and
// persists one snapshot per sliced dimension plus one for compliance.
package scoring

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mediaqa/internal/compliance"
	"mediaqa/internal/history"
	"mediaqa/internal/metrics"
	"mediaqa/internal/models"
	"mediaqa/internal/quality"
	"mediaqa/internal/store"
)

type Service struct {
	st             *store.RowStore
	hist           history.Store
	log            *slog.Logger
	maxConcurrency int
}

func NewService(st *store.RowStore, hist history.Store, log *slog.Logger, maxConcurrency int) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Service{st: st, hist: hist, log: log, maxConcurrency: maxConcurrency}
}

// UnitResult is the outcome for one (market, period) unit of a run.
// Error carries the no-data marker; HistoryError the first persistence
// problem. Neither stops the rest of the run.
type UnitResult struct {
	Market        string  `json:"market"`
	Period        string  `json:"period"`
	QualityScore  float64 `json:"qualityScore"`
	Grade         string  `json:"grade"`
	CompliancePct float64 `json:"compliancePct"`
	Snapshots     int     `json:"snapshots"`
	Error         string  `json:"error,omitempty"`
	HistoryError  string  `json:"historyError,omitempty"`
}

type RunReport struct {
	Period    string       `json:"period"`
	Units     []UnitResult `json:"units"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Quality returns the comprehensive report for one selection. Pure read,
// nothing is persisted.
func (s *Service) Quality(market, period string) models.ComprehensiveReport {
	return quality.Comprehensive(s.st.All(), market, period)
}

// Compliance returns the mapping-compliance report for one selection.
// MoM deltas need a concrete period; under the "all" sentinel every
// momChange stays null.
func (s *Service) Compliance(ctx context.Context, market, period string) models.ComplianceReport {
	rows := quality.Filter(s.st.All(), models.DimensionAll, market, period)
	var prior map[string]float64
	if period != models.PeriodAll {
		prior, _ = s.priorCompliance(ctx, market, period)
	}
	return compliance.Analyze(rows, period, prior)
}

// Run scores every unit matching period ("all" for everything in the
// store). Units run concurrently; one unit's history trouble never
// aborts the others.
func (s *Service) Run(ctx context.Context, period string) RunReport {
	rows := s.st.All()
	units := s.st.Units(period)
	results := make([]UnitResult, len(units))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			results[i] = s.scoreUnit(gCtx, rows, u)
			return nil // errores por unidad no frenan el resto
		})
	}
	_ = g.Wait()

	report := RunReport{Period: period, Units: results}
	for _, r := range results {
		if r.Error == "" && r.HistoryError == "" {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	// units vienen ordenadas por periodo: la última escritura del gauge
	// es el mes más reciente
	for _, r := range results {
		if r.Error == "" {
			metrics.MarketCompliance.WithLabelValues(r.Market).Set(r.CompliancePct)
		}
	}

	outcome := "ok"
	switch {
	case len(units) == 0:
		outcome = "empty"
	case report.Failed > 0:
		outcome = "partial"
	}
	metrics.ScoringRuns.WithLabelValues(outcome).Inc()
	s.log.Info("scoring run finished",
		slog.String("period", period),
		slog.Int("units", len(units)),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed))
	return report
}

func (s *Service) scoreUnit(ctx context.Context, rows []models.Row, u store.Unit) UnitResult {
	start := time.Now()
	defer func() { metrics.UnitDuration.Observe(time.Since(start).Seconds()) }()

	res := UnitResult{Market: u.Market, Period: u.Period}

	allRows := quality.Filter(rows, models.DimensionAll, u.Market, u.Period)
	if len(allRows) == 0 {
		res.Error = models.NoAllData
		res.Grade = models.GradeF
		return res
	}

	year, month, err := models.ParsePeriod(u.Period)
	if err != nil {
		res.Error = err.Error()
		res.Grade = models.GradeF
		return res
	}

	allTotals := quality.TotalsFor(allRows)
	now := time.Now().UTC()

	var scoreSum float64
	snaps := make([]models.Snapshot, 0, len(models.SlicedDimensions)+1)
	for _, dim := range models.SlicedDimensions {
		dr := quality.ScoreDimension(allTotals, quality.Filter(rows, dim, u.Market, u.Period), dim)
		scoreSum += dr.OverallScore
		snaps = append(snaps, models.Snapshot{
			Market: u.Market, Year: year, Month: month,
			Dimension: dim, Score: dr.OverallScore, CreatedAt: now,
		})
	}
	res.QualityScore = round2(scoreSum / float64(len(models.SlicedDimensions)))
	res.Grade = quality.GradeFor(res.QualityScore)

	prior, perr := s.priorCompliance(ctx, u.Market, u.Period)
	if perr != nil {
		res.HistoryError = perr.Error()
	}
	comp := compliance.Analyze(allRows, u.Period, prior)
	res.CompliancePct = comp.CompliancePct
	snaps = append(snaps, models.Snapshot{
		Market: u.Market, Year: year, Month: month,
		Dimension: models.SnapshotCompliance, Score: comp.CompliancePct, CreatedAt: now,
	})

	for _, snap := range snaps {
		if err := s.hist.Upsert(ctx, snap); err != nil {
			metrics.HistoryWriteFailures.Inc()
			if res.HistoryError == "" {
				res.HistoryError = err.Error()
			}
			s.log.Warn("history upsert failed",
				slog.String("market", u.Market),
				slog.String("period", u.Period),
				slog.String("dimension", snap.Dimension),
				slog.String("err", err.Error()))
			continue
		}
		res.Snapshots++
	}
	return res
}

// priorCompliance loads the previous period's compliance snapshots as a
// market → score map. A history read problem disables MoM for the call
// and is reported back, never fatal.
func (s *Service) priorCompliance(ctx context.Context, market, period string) (map[string]float64, error) {
	year, month, err := models.ParsePeriod(period)
	if err != nil {
		return nil, nil
	}
	prevYear, prevMonth := models.PrevPeriod(year, month)

	f := history.Filter{Year: prevYear, Month: prevMonth, Dimension: models.SnapshotCompliance}
	if market != models.MarketAll {
		f.Market = market
	}
	snaps, err := s.hist.Query(ctx, f, 0)
	if err != nil {
		s.log.Warn("prior compliance unavailable",
			slog.String("period", period),
			slog.String("err", err.Error()))
		return nil, err
	}

	prior := make(map[string]float64, len(snaps))
	for _, sn := range snaps {
		prior[sn.Market] = sn.Score
	}
	return prior, nil
}

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
