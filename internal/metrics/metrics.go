// Package metrics holds the Prometheus instrumentation. Collectors
// register on the default registry at init and are served by the
// router's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsIngested counts rows accepted into the store, by dimension.
	RowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediaqa_rows_ingested_total",
		Help: "Rows accepted into the row store, by dimension.",
	}, []string{"dimension"})

	// RowsSkipped counts pushed rows rejected at the API boundary.
	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediaqa_rows_skipped_total",
		Help: "Pushed rows rejected for missing market or unknown dimension.",
	})

	// ScoringRuns counts scoring passes by outcome.
	ScoringRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediaqa_scoring_runs_total",
		Help: "Scoring runs by outcome (ok, partial, empty).",
	}, []string{"outcome"})

	// UnitDuration tracks how long one (market, period) unit takes.
	UnitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediaqa_scoring_unit_duration_seconds",
		Help:    "Time to score one market-period unit.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// HistoryWriteFailures counts snapshot upserts that errored.
	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediaqa_history_write_failures_total",
		Help: "Snapshot upserts that failed; units keep scoring regardless.",
	})

	// MarketCompliance exposes the latest compliance percentage per market.
	MarketCompliance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediaqa_market_compliance_pct",
		Help: "Most recently scored mapping-compliance percentage, by market.",
	}, []string{"market"})
)
