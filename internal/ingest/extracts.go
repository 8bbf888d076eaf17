package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediaqa/internal/config"
	"mediaqa/internal/metrics"
	"mediaqa/internal/models"
	"mediaqa/internal/store"
)

// Loader pulls the six monthly extracts (All plus the five sliced
// dimensions) from the extract service and feeds the row store. It is
// the only place market, period and dimension get stamped onto rows;
// nothing downstream ever parses identifiers out of names.
type Loader struct {
	c   HTTPClient
	st  *store.RowStore
	log *slog.Logger
	cfg config.Config
}

func NewLoader(c HTTPClient, st *store.RowStore, log *slog.Logger, cfg config.Config) *Loader {
	return &Loader{c: c, st: st, log: log, cfg: cfg}
}

// rawRow mirrors one extract record. Metric fields arrive as numbers or
// numeric strings depending on the exporter; both are accepted and
// anything else coerces to 0.
type rawRow struct {
	Model        string `json:"model"`
	Phase        string `json:"phase"`
	ChannelType  string `json:"channelType"`
	ChannelName  string `json:"channelName"`
	CampaignType string `json:"campaignType"`

	MediaCost   any `json:"mediaCost"`
	Impressions any `json:"impressions"`
	Clicks      any `json:"clicks"`
	IV          any `json:"iv"`
	NVWR        any `json:"nvwr"`
}

func (rr rawRow) toRow(market string, year, month int, dimension string) models.Row {
	return models.Row{
		Market:    market,
		Year:      year,
		Month:     month,
		Dimension: dimension,

		// se conservan vacíos: un campo sin mapear es señal, no defecto
		Model:        strings.TrimSpace(rr.Model),
		Phase:        strings.TrimSpace(rr.Phase),
		ChannelType:  strings.TrimSpace(rr.ChannelType),
		ChannelName:  strings.TrimSpace(rr.ChannelName),
		CampaignType: strings.TrimSpace(rr.CampaignType),

		MediaCost:   models.ParseNumeric(rr.MediaCost),
		Impressions: models.ParseNumeric(rr.Impressions),
		Clicks:      models.ParseNumeric(rr.Clicks),
		IV:          models.ParseNumeric(rr.IV),
		NVWR:        models.ParseNumeric(rr.NVWR),
	}
}

// Run pulls every extract for one period, for one market or all
// configured markets. It returns the number of rows accepted; re-runs
// over the same extracts are no-ops thanks to the store's seen set.
func (l *Loader) Run(ctx context.Context, market, period string) (int, error) {
	year, month, err := models.ParsePeriod(period)
	if err != nil {
		return 0, err
	}

	mkts := []string{market}
	if market == models.MarketAll {
		mkts = l.cfg.Markets
	}
	if len(mkts) == 0 {
		return 0, fmt.Errorf("no markets configured")
	}

	dims := append([]string{models.DimensionAll}, models.SlicedDimensions...)
	total := 0
	for _, mkt := range mkts {
		before := total
		for _, dim := range dims {
			url := fmt.Sprintf("%s/extracts?market=%s&period=%s&dimension=%s", l.cfg.ExtractsURL, mkt, period, dim)
			var resp []rawRow
			if err := GetJSONWithRetry(ctx, l.c, url, &resp); err != nil {
				return total, fmt.Errorf("extract %s %s %s: %w", mkt, period, dim, err)
			}
			rows := make([]models.Row, 0, len(resp))
			for _, rr := range resp {
				rows = append(rows, rr.toRow(mkt, year, month, dim))
			}
			n := l.st.Add(rows...)
			total += n
			metrics.RowsIngested.WithLabelValues(dim).Add(float64(n))
		}
		l.log.Info("extracts loaded",
			slog.String("market", mkt),
			slog.String("period", period),
			slog.Int("rows", total-before))
	}
	return total, nil
}

// PushRow is the wire shape for rows pushed by collaborators that have
// already parsed the source extracts themselves. Year and month accept
// numbers or numeric strings like the metric fields.
type PushRow struct {
	Market    string `json:"market"`
	Year      any    `json:"year"`
	Month     any    `json:"month"`
	Dimension string `json:"dimension"`

	Model        string `json:"model"`
	Phase        string `json:"phase"`
	ChannelType  string `json:"channelType"`
	ChannelName  string `json:"channelName"`
	CampaignType string `json:"campaignType"`

	MediaCost   any `json:"mediaCost"`
	Impressions any `json:"impressions"`
	Clicks      any `json:"clicks"`
	IV          any `json:"iv"`
	NVWR        any `json:"nvwr"`
}

// ToRow validates the structural fields. Metric defects never reject a
// row; a missing market, unknown dimension or impossible month does.
func (p PushRow) ToRow() (models.Row, error) {
	market := strings.ToUpper(strings.TrimSpace(p.Market))
	if market == "" {
		return models.Row{}, fmt.Errorf("missing market")
	}
	if !models.ValidDimension(p.Dimension) {
		return models.Row{}, fmt.Errorf("unknown dimension %q", p.Dimension)
	}
	year := int(models.ParseNumeric(p.Year))
	month := int(models.ParseNumeric(p.Month))
	if year < 1 || month < 1 || month > 12 {
		return models.Row{}, fmt.Errorf("bad period %04d-%02d", year, month)
	}
	rr := rawRow{
		Model:        p.Model,
		Phase:        p.Phase,
		ChannelType:  p.ChannelType,
		ChannelName:  p.ChannelName,
		CampaignType: p.CampaignType,
		MediaCost:    p.MediaCost,
		Impressions:  p.Impressions,
		Clicks:       p.Clicks,
		IV:           p.IV,
		NVWR:         p.NVWR,
	}
	return rr.toRow(market, year, month, p.Dimension), nil
}
