// Package plot defines the core entities of the screening pipeline: plots as
// normalized from uploaded boundary files, and the classification verdicts
// attached to them.  Entities here are immutable once produced; downstream
// components receive copies or read-only snapshots.
package plot

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Dataset identifies one of the independent forest-loss monitoring datasets
// used as classification oracles.
type Dataset string

const (
	DatasetGFW  Dataset = "gfw"
	DatasetJRC  Dataset = "jrc"
	DatasetSBTN Dataset = "sbtn"
)

// Datasets lists all forest-loss datasets in canonical order.
func Datasets() []Dataset {
	return []Dataset{DatasetGFW, DatasetJRC, DatasetSBTN}
}

// RiskLevel is the verdict scale for both per-dataset loss status and the
// overall plot risk.  MEDIUM is reserved for future multi-tier scoring and
// must remain a legal value even though the current rule never emits it for
// the overall verdict.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// ComplianceStatus is the final legality determination for a plot.
type ComplianceStatus string

const (
	Compliant         ComplianceStatus = "COMPLIANT"
	NonCompliant      ComplianceStatus = "NON-COMPLIANT"
	ComplianceUnknown ComplianceStatus = "UNKNOWN"
)

// WDPAStatus describes protected-area overlap.
type WDPAStatus string

const (
	Protected    WDPAStatus = "PROTECTED"
	NotProtected WDPAStatus = "NOT_PROTECTED"
	WDPAUnknown  WDPAStatus = "UNKNOWN"
)

// PeatlandStatus describes peatland overlap.
type PeatlandStatus string

const (
	Peatland        PeatlandStatus = "PEATLAND"
	NotPeatland     PeatlandStatus = "NOT_PEATLAND"
	PeatlandUnknown PeatlandStatus = "UNKNOWN"
)

// LossTier is the presentation tier for a detected loss area.  Marginal and
// significant losses both count as loss for risk purposes.
type LossTier string

const (
	LossNone        LossTier = "NONE"
	LossMarginal    LossTier = "MARGINAL"    // below 0.01 ha
	LossSignificant LossTier = "SIGNIFICANT" // 0.01 ha and above
	LossUnknown     LossTier = "UNKNOWN"
)

// Hectares is an area in hectares that survives serialization boundaries
// where upstream producers supply numbers as strings, blanks, or nulls.
// Absent, null, empty, and non-numeric inputs all decode to 0, never NaN
// and never an error, so a restored session is numerically identical to the
// saved one.
type Hectares float64

// Float64 returns the value as a plain float64.
func (h Hectares) Float64() float64 { return float64(h) }

// MarshalJSON encodes the value as a plain JSON number.
func (h Hectares) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(h))
}

// UnmarshalJSON coerces numbers, numeric strings, empty strings, and nulls.
func (h *Hectares) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*h = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*h = 0
			return nil
		}
		*h = Hectares(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*h = 0
		return nil
	}
	*h = Hectares(f)
	return nil
}

// NormalizedPlot is a repaired, canonicalized plot boundary as produced by
// the ingestion normalizer.
type NormalizedPlot struct {
	// PlotID is the canonical identifier; synthesized (PLOT_NNN) when the
	// source feature carried none.
	PlotID string `json:"plotId"`

	// Country defaults to "unknown" when not derivable from the feature.
	Country string `json:"country"`

	// Geometry is the 2-D Polygon or MultiPolygon boundary with any
	// elevation coordinate already dropped.
	Geometry *geojson.Geometry `json:"geometry"`

	// AreaHectares is the geodesic area of the boundary.
	AreaHectares Hectares `json:"areaHectares"`

	// SynthesizedID marks plots whose PlotID was generated rather than
	// read from the source feature.
	SynthesizedID bool `json:"synthesizedId,omitempty"`
}

// DatasetLoss is the classification result for one forest-loss dataset.
type DatasetLoss struct {
	AreaHectares Hectares  `json:"areaHectares"`
	Status       RiskLevel `json:"status"`
	Tier         LossTier  `json:"tier"`
}

// ClassifiedPlot extends NormalizedPlot with the outputs of the risk
// classifier.  Re-classification replaces the whole value atomically.
type ClassifiedPlot struct {
	NormalizedPlot

	// DatasetLoss holds per-dataset loss area and status, keyed by
	// dataset name.
	DatasetLoss map[Dataset]DatasetLoss `json:"datasetLoss"`

	WDPAStatus        WDPAStatus `json:"wdpaStatus"`
	WDPAOverlapHa     Hectares   `json:"wdpaOverlapHa"`
	PeatlandStatus    PeatlandStatus `json:"peatlandStatus"`
	PeatlandOverlapHa Hectares       `json:"peatlandOverlapHa"`

	// OverallRisk is a deterministic function of the dataset losses.
	OverallRisk RiskLevel `json:"overallRisk"`

	// ComplianceStatus combines OverallRisk with the legal overlap gates.
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`

	// HighRiskDatasets names every dataset that individually exceeded the
	// deforestation threshold, sorted for stable audit display.
	HighRiskDatasets []string `json:"highRiskDatasets"`

	ClassifiedAt time.Time `json:"classifiedAt"`
}

// SortedHighRisk returns the high-risk dataset names in canonical order.
func SortedHighRisk(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
