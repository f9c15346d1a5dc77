package handlers

import (
	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/internal/domain/plot"
)

// plotResult is the wire shape consumers of analysis results read.  The
// per-dataset loss flags are three-valued: true, false, or null when the
// dataset could not be queried.
type plotResult struct {
	PlotID           string                `json:"plotId"`
	Country          string                `json:"country"`
	Area             plot.Hectares         `json:"area"`
	OverallRisk      plot.RiskLevel        `json:"overallRisk"`
	ComplianceStatus plot.ComplianceStatus `json:"complianceStatus"`
	GFWLoss          *bool                 `json:"gfwLoss"`
	JRCLoss          *bool                 `json:"jrcLoss"`
	SBTNLoss         *bool                 `json:"sbtnLoss"`
	GFWLossArea      plot.Hectares         `json:"gfwLossArea"`
	JRCLossArea      plot.Hectares         `json:"jrcLossArea"`
	SBTNLossArea     plot.Hectares         `json:"sbtnLossArea"`
	Geometry         *geojson.Geometry     `json:"geometry"`
	WDPAStatus       plot.WDPAStatus       `json:"wdpaStatus"`
	PeatlandStatus   plot.PeatlandStatus   `json:"peatlandStatus"`
	HighRiskDatasets []string              `json:"highRiskDatasets"`
}

func lossFlag(dl plot.DatasetLoss) *bool {
	switch dl.Status {
	case plot.RiskHigh:
		v := true
		return &v
	case plot.RiskLow:
		v := false
		return &v
	default:
		return nil
	}
}

func toPlotResult(p plot.ClassifiedPlot) plotResult {
	high := p.HighRiskDatasets
	if high == nil {
		high = []string{}
	}
	return plotResult{
		PlotID:           p.PlotID,
		Country:          p.Country,
		Area:             p.AreaHectares,
		OverallRisk:      p.OverallRisk,
		ComplianceStatus: p.ComplianceStatus,
		GFWLoss:          lossFlag(p.DatasetLoss[plot.DatasetGFW]),
		JRCLoss:          lossFlag(p.DatasetLoss[plot.DatasetJRC]),
		SBTNLoss:         lossFlag(p.DatasetLoss[plot.DatasetSBTN]),
		GFWLossArea:      p.DatasetLoss[plot.DatasetGFW].AreaHectares,
		JRCLossArea:      p.DatasetLoss[plot.DatasetJRC].AreaHectares,
		SBTNLossArea:     p.DatasetLoss[plot.DatasetSBTN].AreaHectares,
		Geometry:         p.Geometry,
		WDPAStatus:       p.WDPAStatus,
		PeatlandStatus:   p.PeatlandStatus,
		HighRiskDatasets: high,
	}
}

func toPlotResults(plots []plot.ClassifiedPlot) []plotResult {
	out := make([]plotResult, len(plots))
	for i, p := range plots {
		out[i] = toPlotResult(p)
	}
	return out
}

// toFeatureCollection renders classified plots as a FeatureCollection whose
// properties carry the verdict, for direct map rendering.
func toFeatureCollection(plots []plot.ClassifiedPlot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range plots {
		if p.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(p.Geometry.Geometry())
		f.Properties = map[string]interface{}{
			"plotId":           p.PlotID,
			"country":          p.Country,
			"areaHectares":     float64(p.AreaHectares),
			"overallRisk":      string(p.OverallRisk),
			"complianceStatus": string(p.ComplianceStatus),
			"highRiskDatasets": p.HighRiskDatasets,
			"wdpaStatus":       string(p.WDPAStatus),
			"peatlandStatus":   string(p.PeatlandStatus),
		}
		fc.Append(f)
	}
	return fc
}
