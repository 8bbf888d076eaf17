package scoring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"mediaqa/internal/history"
	"mediaqa/internal/models"
	"mediaqa/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mk(market string, month int, dim string, v float64) models.Row {
	return models.Row{
		Market: market, Year: 2025, Month: month, Dimension: dim,
		Model: "m1", Phase: "launch", ChannelType: "paid", ChannelName: "search", CampaignType: "always-on",
		MediaCost: v, Impressions: v, Clicks: v, IV: v, NVWR: v,
	}
}

// seedFull puts one fully-covered month for a market into the store.
func seedFull(st *store.RowStore, market string, month int) {
	st.Add(mk(market, month, models.DimensionAll, 100))
	for _, dim := range models.SlicedDimensions {
		st.Add(mk(market, month, dim, 100))
	}
}

func TestRunWritesSnapshotsPerUnit(t *testing.T) {
	st := store.NewRowStore()
	seedFull(st, "FR", 6)
	seedFull(st, "BE", 6)
	hist := history.NewMemoryStore()
	svc := NewService(st, hist, testLogger(), 2)

	rep := svc.Run(context.Background(), "2025-06")

	if len(rep.Units) != 2 || rep.Succeeded != 2 || rep.Failed != 0 {
		t.Fatalf("run report: %+v", rep)
	}
	be, fr := rep.Units[0], rep.Units[1] // orden por periodo y mercado
	if be.Market != "BE" || fr.Market != "FR" {
		t.Fatalf("unit order: %s, %s", be.Market, fr.Market)
	}
	for _, u := range rep.Units {
		if u.Error != "" || u.HistoryError != "" {
			t.Fatalf("unexpected unit error: %+v", u)
		}
		if u.QualityScore != 100 || u.Grade != models.GradeAPlus {
			t.Fatalf("full coverage should score 100/A+: %+v", u)
		}
		if u.CompliancePct != 100 {
			t.Fatalf("mapped rows should be fully compliant: %+v", u)
		}
		if u.Snapshots != len(models.SlicedDimensions)+1 {
			t.Fatalf("expected %d snapshots, got %d", len(models.SlicedDimensions)+1, u.Snapshots)
		}
	}

	snaps, err := hist.Query(context.Background(), history.Filter{Dimension: models.SnapshotCompliance}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 compliance snapshots, got %d", len(snaps))
	}
	all, err := hist.Query(context.Background(), history.Filter{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 snapshots in history, got %d", len(all))
	}
}

func TestRunFeedsMonthOverMonth(t *testing.T) {
	st := store.NewRowStore()
	// mayo: uno de dos registros sin mapear → 50%
	st.Add(mk("FR", 5, models.DimensionAll, 10))
	bad := mk("FR", 5, models.DimensionAll, 10)
	bad.Model = "NOT MAPPED"
	st.Add(bad)
	hist := history.NewMemoryStore()
	svc := NewService(st, hist, testLogger(), 2)

	if rep := svc.Run(context.Background(), "2025-05"); rep.Failed != 0 {
		t.Fatalf("may run: %+v", rep)
	}

	// junio: todo mapeado → 100%
	june := mk("FR", 6, models.DimensionAll, 10)
	june2 := mk("FR", 6, models.DimensionAll, 10)
	june2.ChannelName = "social" // identidad distinta
	st.Add(june, june2)
	if rep := svc.Run(context.Background(), "2025-06"); rep.Failed != 0 {
		t.Fatalf("june run: %+v", rep)
	}

	comp := svc.Compliance(context.Background(), models.MarketAll, "2025-06")
	if len(comp.Markets) != 1 {
		t.Fatalf("expected 1 market, got %+v", comp.Markets)
	}
	fr := comp.Markets[0]
	if fr.CompliancePct != 100 {
		t.Fatalf("june compliance: %v", fr.CompliancePct)
	}
	if fr.MoMChange == nil {
		t.Fatal("expected MoM change fed from the may snapshot")
	}
	if fr.MoMChange.Percentage != 50 || fr.MoMChange.Direction != models.DirectionUp {
		t.Fatalf("MoM: %+v", fr.MoMChange)
	}
}

func TestComplianceWithoutPriorIsNull(t *testing.T) {
	st := store.NewRowStore()
	st.Add(mk("BE", 6, models.DimensionAll, 10))
	svc := NewService(st, history.NewMemoryStore(), testLogger(), 1)

	comp := svc.Compliance(context.Background(), models.MarketAll, "2025-06")
	if len(comp.Markets) != 1 || comp.Markets[0].MoMChange != nil {
		t.Fatalf("expected null MoM without prior snapshot: %+v", comp.Markets)
	}
}

// flakyStore rejects upserts for one market to prove unit isolation.
type flakyStore struct {
	history.Store
	failMarket string
}

func (f *flakyStore) Upsert(ctx context.Context, s models.Snapshot) error {
	if s.Market == f.failMarket {
		return errors.New("backend down")
	}
	return f.Store.Upsert(ctx, s)
}

func TestRunIsolatesHistoryFailures(t *testing.T) {
	st := store.NewRowStore()
	seedFull(st, "FR", 6)
	seedFull(st, "BE", 6)
	mem := history.NewMemoryStore()
	svc := NewService(st, &flakyStore{Store: mem, failMarket: "FR"}, testLogger(), 2)

	rep := svc.Run(context.Background(), "2025-06")

	if rep.Succeeded != 1 || rep.Failed != 1 {
		t.Fatalf("expected 1 ok / 1 failed, got %+v", rep)
	}
	be, fr := rep.Units[0], rep.Units[1]
	if be.HistoryError != "" || be.Snapshots != 6 {
		t.Fatalf("BE should persist fine: %+v", be)
	}
	if fr.HistoryError == "" || fr.Snapshots != 0 {
		t.Fatalf("FR should report its history failure: %+v", fr)
	}
	// la unidad fallida sigue calculando sus puntajes
	if fr.QualityScore != 100 || fr.CompliancePct != 100 {
		t.Fatalf("scores must survive a history outage: %+v", fr)
	}

	snaps, err := mem.Query(context.Background(), history.Filter{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 6 {
		t.Fatalf("only BE snapshots should land, got %d", len(snaps))
	}
}

func TestRunUnitWithoutAllRows(t *testing.T) {
	st := store.NewRowStore()
	st.Add(mk("XX", 6, models.DimensionModel, 10)) // sin extracto "All"
	hist := history.NewMemoryStore()
	svc := NewService(st, hist, testLogger(), 1)

	rep := svc.Run(context.Background(), "2025-06")
	if len(rep.Units) != 1 {
		t.Fatalf("expected 1 unit, got %+v", rep)
	}
	u := rep.Units[0]
	if u.Error != models.NoAllData || u.Grade != models.GradeF || u.Snapshots != 0 {
		t.Fatalf("no-data unit: %+v", u)
	}

	snaps, err := hist.Query(context.Background(), history.Filter{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Fatalf("no-data units must not fabricate snapshots, got %d", len(snaps))
	}
}

func TestRunPeriodFilter(t *testing.T) {
	st := store.NewRowStore()
	seedFull(st, "FR", 5)
	seedFull(st, "FR", 6)
	svc := NewService(st, history.NewMemoryStore(), testLogger(), 2)

	rep := svc.Run(context.Background(), "2025-06")
	if len(rep.Units) != 1 || rep.Units[0].Period != "2025-06" {
		t.Fatalf("period filter: %+v", rep.Units)
	}

	rep = svc.Run(context.Background(), models.PeriodAll)
	if len(rep.Units) != 2 {
		t.Fatalf("all periods: %+v", rep.Units)
	}
}
