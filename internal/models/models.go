package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dimension names as they come in the monthly extracts. "All" is the
// unsliced extract the five others must reconcile against.
const (
	DimensionAll          = "All"
	DimensionCampaignType = "CampaignType"
	DimensionChannelType  = "ChannelType"
	DimensionChannelName  = "ChannelName"
	DimensionPhase        = "Phase"
	DimensionModel        = "Model"
)

// SlicedDimensions is the fixed scoring order for the non-"All" extracts.
var SlicedDimensions = []string{
	DimensionCampaignType,
	DimensionChannelType,
	DimensionChannelName,
	DimensionPhase,
	DimensionModel,
}

// ValidDimension reports whether s names a known extract dimension.
func ValidDimension(s string) bool {
	if s == DimensionAll {
		return true
	}
	for _, d := range SlicedDimensions {
		if s == d {
			return true
		}
	}
	return false
}

type Metric string

const (
	MetricMediaCost   Metric = "mediaCost"
	MetricImpressions Metric = "impressions"
	MetricClicks      Metric = "clicks"
	MetricIV          Metric = "iv"
	MetricNVWR        Metric = "nvwr"
)

// CoreMetrics is the fixed metric order used everywhere a deterministic
// ordering is required (scoring, recommendations, reports).
var CoreMetrics = []Metric{
	MetricMediaCost,
	MetricImpressions,
	MetricClicks,
	MetricIV,
	MetricNVWR,
}

// MetricWeights are the composite-score weights per metric.
var MetricWeights = map[Metric]float64{
	MetricMediaCost:   0.25,
	MetricImpressions: 0.20,
	MetricClicks:      0.15,
	MetricIV:          0.20,
	MetricNVWR:        0.20,
}

const (
	MarketAll = "all"
	PeriodAll = "all"
)

const (
	SeverityOK       = "OK"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

const (
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeB     = "B"
	GradeC     = "C"
	GradeD     = "D"
	GradeF     = "F"
)

const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

const (
	StatusGreen  = "Green"
	StatusYellow = "Yellow"
	StatusOrange = "Orange"
	StatusRed    = "Red"
)

// NoAllData marks a selection with zero qualifying "All" rows. It is a
// report field, never an error value: callers must distinguish "nothing
// to measure" from a genuine 0% coverage.
const NoAllData = "no all-data"

// SnapshotCompliance is the Snapshot.Dimension value for the per-market
// mapping-compliance score; quality snapshots carry the sliced dimension
// name instead.
const SnapshotCompliance = "compliance"

// Row is one monthly performance record. Immutable once ingested; the
// market field is explicit (never derived from file names upstream).
type Row struct {
	Market    string `json:"market"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Dimension string `json:"dimension"`

	Model        string `json:"model"`
	Phase        string `json:"phase"`
	ChannelType  string `json:"channelType"`
	ChannelName  string `json:"channelName"`
	CampaignType string `json:"campaignType"`

	MediaCost   float64 `json:"mediaCost"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	IV          float64 `json:"iv"`
	NVWR        float64 `json:"nvwr"`
}

// MetricValue returns the named metric, 0 for unknown names.
func (r Row) MetricValue(m Metric) float64 {
	switch m {
	case MetricMediaCost:
		return r.MediaCost
	case MetricImpressions:
		return r.Impressions
	case MetricClicks:
		return r.Clicks
	case MetricIV:
		return r.IV
	case MetricNVWR:
		return r.NVWR
	}
	return 0
}

// CategoryValue returns the categorical field that the given dimension
// slices on. For "All" there is no slicing field.
func (r Row) CategoryValue(dimension string) string {
	switch dimension {
	case DimensionModel:
		return r.Model
	case DimensionPhase:
		return r.Phase
	case DimensionChannelType:
		return r.ChannelType
	case DimensionChannelName:
		return r.ChannelName
	case DimensionCampaignType:
		return r.CampaignType
	}
	return ""
}

// Period returns the row's period key (YYYY-MM).
func (r Row) Period() string { return PeriodKey(r.Year, r.Month) }

func PeriodKey(year, month int) string { return fmt.Sprintf("%04d-%02d", year, month) }

// ParsePeriod parses YYYY-MM. The "all" sentinel is not accepted here;
// callers check for it before parsing.
func ParsePeriod(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad period %q (want YYYY-MM)", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad period %q (want YYYY-MM)", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("bad period %q (want YYYY-MM)", s)
	}
	return y, m, nil
}

// PrevPeriod returns the immediately preceding month.
func PrevPeriod(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// ParseNumeric coerces a decoded JSON value to float64. Numbers and
// numeric strings pass through; everything else (absent, null, garbage)
// becomes 0. Malformed metric values never raise: upstream extracts are
// routinely dirty and scoring must stay resilient to that.
func ParseNumeric(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// MetricTotals holds one sum per core metric. Always recomputed from
// rows, never mutated in place.
type MetricTotals struct {
	MediaCost   float64 `json:"mediaCost"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	IV          float64 `json:"iv"`
	NVWR        float64 `json:"nvwr"`
}

// Value returns the named total, 0 for unknown names.
func (t MetricTotals) Value(m Metric) float64 {
	switch m {
	case MetricMediaCost:
		return t.MediaCost
	case MetricImpressions:
		return t.Impressions
	case MetricClicks:
		return t.Clicks
	case MetricIV:
		return t.IV
	case MetricNVWR:
		return t.NVWR
	}
	return 0
}

// GapResult compares one metric's dimension total against the "All"
// total. CoveragePct is 100 when the "All" total is 0 and is not clamped
// above 100 when a slice over-reports.
type GapResult struct {
	CoveragePct    float64 `json:"coveragePct"`
	CoverageGapPct float64 `json:"coverageGapPct"`
	MissingValue   float64 `json:"missingValue"`
	Severity       string  `json:"severity"`
}

// MetricGaps is a fixed tagged record, one GapResult per core metric.
// A struct rather than a name-keyed map so producer and consumer cannot
// drift on key spelling.
type MetricGaps struct {
	MediaCost   GapResult `json:"mediaCost"`
	Impressions GapResult `json:"impressions"`
	Clicks      GapResult `json:"clicks"`
	IV          GapResult `json:"iv"`
	NVWR        GapResult `json:"nvwr"`
}

type Recommendation struct {
	Priority  string `json:"priority"`
	Dimension string `json:"dimension"`
	Metric    string `json:"metric,omitempty"`
	Message   string `json:"message"`
}

// DimensionQualityReport scores one sliced dimension against the "All"
// totals for the same selection.
type DimensionQualityReport struct {
	Dimension        string            `json:"dimension"`
	OverallScore     float64           `json:"overallScore"`
	Grade            string            `json:"grade"`
	Gaps             MetricGaps        `json:"gaps"`
	Recommendations  []Recommendation  `json:"recommendations"`
	Markets          []MarketBreakdown `json:"markets,omitempty"`
	AllRecords       int               `json:"allRecords"`
	DimensionRecords int               `json:"dimensionRecords"`
}

// MarketBreakdown is the per-market view of one dimension. Error carries
// the no all-data marker when the market has nothing to reconcile
// against for the period.
type MarketBreakdown struct {
	Market           string     `json:"market"`
	CoveragePct      float64    `json:"coveragePct"`
	Gaps             MetricGaps `json:"gaps"`
	AllRecords       int        `json:"allRecords"`
	DimensionRecords int        `json:"dimensionRecords"`
	Error            string     `json:"error,omitempty"`
}

type MarketIssue struct {
	Dimension   string  `json:"dimension"`
	CoveragePct float64 `json:"coveragePct"`
	Severity    string  `json:"severity"`
}

// MarketQuality rolls one market's per-dimension coverages into a single
// market-level figure (unweighted mean across dimensions).
type MarketQuality struct {
	Market          string        `json:"market"`
	OverallCoverage float64       `json:"overallCoverage"`
	Grade           string        `json:"grade"`
	Issues          []MarketIssue `json:"issues"`
	Error           string        `json:"error,omitempty"`
}

// ComprehensiveReport is the orchestrated market × dimension matrix for
// one selection. No generation timestamp: identical input rows must
// produce byte-identical reports.
type ComprehensiveReport struct {
	Market           string                   `json:"market"`
	Period           string                   `json:"period"`
	OverallScore     float64                  `json:"overallScore"`
	Grade            string                   `json:"grade"`
	DataCompleteness float64                  `json:"dataCompleteness"`
	Dimensions       []DimensionQualityReport `json:"dimensions"`
	MarketAnalysis   []MarketQuality          `json:"marketAnalysis"`
	CriticalIssues   []Recommendation         `json:"criticalIssues"`
	Error            string                   `json:"error,omitempty"`
}

// FieldBreakdown counts rows unmapped per tracked categorical field.
type FieldBreakdown struct {
	Model        int `json:"model"`
	Phase        int `json:"phase"`
	ChannelType  int `json:"channelType"`
	ChannelName  int `json:"channelName"`
	CampaignType int `json:"campaignType"`
}

type MoMChange struct {
	Percentage float64 `json:"percentage"`
	Direction  string  `json:"direction"`
}

// MarketComplianceRecord is the mapping-compliance summary for one
// (market, period). MoMChange is nil when no prior snapshot exists;
// consumers render N/A, never 0%.
type MarketComplianceRecord struct {
	Market          string         `json:"market"`
	Period          string         `json:"period"`
	TotalRecords    int            `json:"totalRecords"`
	MappedRecords   int            `json:"mappedRecords"`
	UnmappedRecords int            `json:"unmappedRecords"`
	UnmappedByField FieldBreakdown `json:"unmappedByField"`
	TotalNVWR       float64        `json:"totalNvwr"`
	UnmappedNVWR    float64        `json:"unmappedNvwr"`
	UnmappedNVWRPct float64        `json:"unmappedNvwrPct"`
	CompliancePct   float64        `json:"compliancePct"`
	Status          string         `json:"status"`
	MoMChange       *MoMChange     `json:"momChange"`
}

type ComplianceReport struct {
	Period        string                   `json:"period"`
	Markets       []MarketComplianceRecord `json:"markets"`
	TotalRecords  int                      `json:"totalRecords"`
	CompliancePct float64                  `json:"compliancePct"`
}

// Snapshot is one persisted score point, keyed by (market, year, month,
// dimension). Dimension names a sliced dimension for quality scores and
// is SnapshotCompliance for the per-market compliance score. Upserts
// overwrite on key collision.
type Snapshot struct {
	Market    string    `json:"market"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Dimension string    `json:"dimension"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
