package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediaqa/internal/history"
	"mediaqa/internal/ingest"
	"mediaqa/internal/metrics"
	"mediaqa/internal/models"
	"mediaqa/internal/scoring"
	"mediaqa/internal/store"
	"mediaqa/internal/utils"
)

func NewRouter(log *slog.Logger, loader *ingest.Loader, svc *scoring.Service, st *store.RowStore, hist history.Store) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/api/rows", func(w http.ResponseWriter, r *http.Request) {
		var payload []ingest.PushRow
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "bad body: expected a JSON array of rows", 400)
			return
		}
		accepted, skipped := 0, 0
		for _, p := range payload {
			row, err := p.ToRow()
			if err != nil {
				skipped++
				metrics.RowsSkipped.Inc()
				continue
			}
			n := st.Add(row)
			accepted += n
			metrics.RowsIngested.WithLabelValues(row.Dimension).Add(float64(n))
		}
		writeJSON(w, map[string]any{"accepted": accepted, "skipped": skipped, "stored": st.Count()})
	})

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if _, _, err := models.ParsePeriod(period); err != nil {
			http.Error(w, "period required (YYYY-MM)", 400)
			return
		}
		market := marketParam(r)
		n, err := loader.Run(r.Context(), market, period)
		if err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		writeJSONStatus(w, 202, map[string]any{"accepted": n})
	})

	mux.Post("/score/run", func(w http.ResponseWriter, r *http.Request) {
		period, ok := periodParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, svc.Run(r.Context(), period))
	})

	mux.Get("/api/quality", func(w http.ResponseWriter, r *http.Request) {
		period, ok := periodParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, svc.Quality(marketParam(r), period))
	})

	mux.Get("/api/compliance", func(w http.ResponseWriter, r *http.Request) {
		period, ok := periodParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, svc.Compliance(r.Context(), marketParam(r), period))
	})

	mux.Get("/api/history/trend", func(w http.ResponseWriter, r *http.Request) {
		market := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("market")))
		if market == "" {
			http.Error(w, "market required", 400)
			return
		}
		dim := r.URL.Query().Get("dimension")
		if dim != models.SnapshotCompliance && !models.ValidDimension(dim) {
			http.Error(w, "unknown dimension", 400)
			return
		}
		months := atoiDef(r.URL.Query().Get("months"), 6)
		if months < 1 {
			months = 1
		}
		if months > 24 {
			months = 24
		} // tope sano
		snaps, err := hist.Trend(r.Context(), market, dim, months)
		if err != nil {
			http.Error(w, "history unavailable", 500)
			return
		}
		if snaps == nil {
			snaps = []models.Snapshot{}
		}
		writeJSON(w, snaps)
	})

	mux.Delete("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if err := hist.Clear(r.Context()); err != nil {
			http.Error(w, "history unavailable", 500)
			return
		}
		w.WriteHeader(204)
	})

	return mux
}

// periodParam reads ?period=, defaulting to the "all" sentinel. A
// malformed period answers 400 and reports false.
func periodParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := strings.TrimSpace(r.URL.Query().Get("period"))
	if q == "" || q == models.PeriodAll {
		return models.PeriodAll, true
	}
	if _, _, err := models.ParsePeriod(q); err != nil {
		http.Error(w, "bad period (YYYY-MM)", 400)
		return "", false
	}
	return q, true
}

func marketParam(r *http.Request) string {
	q := strings.TrimSpace(r.URL.Query().Get("market"))
	if q == "" || strings.EqualFold(q, models.MarketAll) {
		return models.MarketAll
	}
	return strings.ToUpper(q)
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
