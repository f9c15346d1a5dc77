package classify

import (
	"time"

	"github.com/verdantio/plotproof/internal/domain/plot"
)

// Loss thresholds in hectares.  Any area above LossThresholdHa (about one
// square metre) counts as detected loss; the marginal/significant split is
// presentation only and both tiers count as loss for risk purposes.
const (
	LossThresholdHa   = 0.001
	SignificantLossHa = 0.01
)

// lossOutcome is the raw result of one forest-loss oracle call.
type lossOutcome struct {
	areaHa float64
	failed bool
}

// overlapOutcome is the raw result of one overlap oracle call.
type overlapOutcome struct {
	overlaps bool
	areaHa   float64
	failed   bool
}

func lossTier(areaHa float64) plot.LossTier {
	switch {
	case areaHa <= LossThresholdHa:
		return plot.LossNone
	case areaHa < SignificantLossHa:
		return plot.LossMarginal
	default:
		return plot.LossSignificant
	}
}

func datasetLoss(out lossOutcome) plot.DatasetLoss {
	if out.failed {
		return plot.DatasetLoss{Status: plot.RiskUnknown, Tier: plot.LossUnknown}
	}
	status := plot.RiskLow
	if out.areaHa > LossThresholdHa {
		status = plot.RiskHigh
	}
	return plot.DatasetLoss{
		AreaHectares: plot.Hectares(out.areaHa),
		Status:       status,
		Tier:         lossTier(out.areaHa),
	}
}

// aggregate derives the full verdict for one plot once all dataset results
// (or their failures) are in.  It is a pure function: re-running it with the
// same inputs replaces the classification without any prior-state cleanup.
//
// Rules:
//   - overall risk is HIGH when any dataset individually exceeds the loss
//     threshold, UNKNOWN when no dataset answered, LOW otherwise.  MEDIUM is
//     reserved for future multi-tier scoring.
//   - compliance is NON-COMPLIANT on HIGH risk or a failed legal gate
//     (protected-area overlap; peatland overlap when the policy gate is on),
//     UNKNOWN whenever an input needed for a COMPLIANT verdict is UNKNOWN,
//     and COMPLIANT only when every input affirmatively passes.
func aggregate(
	p plot.NormalizedPlot,
	losses map[plot.Dataset]lossOutcome,
	wdpa overlapOutcome,
	peat overlapOutcome,
	peatlandGate bool,
	now time.Time,
) plot.ClassifiedPlot {
	out := plot.ClassifiedPlot{
		NormalizedPlot: p,
		DatasetLoss:    make(map[plot.Dataset]plot.DatasetLoss, len(losses)),
		ClassifiedAt:   now,
	}

	answered := 0
	var highRisk []string
	for _, ds := range plot.Datasets() {
		dl := datasetLoss(losses[ds])
		out.DatasetLoss[ds] = dl
		if dl.Status != plot.RiskUnknown {
			answered++
		}
		if dl.Status == plot.RiskHigh {
			highRisk = append(highRisk, string(ds))
		}
	}
	out.HighRiskDatasets = plot.SortedHighRisk(highRisk)

	switch {
	case len(highRisk) > 0:
		out.OverallRisk = plot.RiskHigh
	case answered == 0:
		out.OverallRisk = plot.RiskUnknown
	default:
		out.OverallRisk = plot.RiskLow
	}

	switch {
	case wdpa.failed:
		out.WDPAStatus = plot.WDPAUnknown
	case wdpa.overlaps:
		out.WDPAStatus = plot.Protected
		out.WDPAOverlapHa = plot.Hectares(wdpa.areaHa)
	default:
		out.WDPAStatus = plot.NotProtected
	}

	switch {
	case peat.failed:
		out.PeatlandStatus = plot.PeatlandUnknown
	case peat.overlaps:
		out.PeatlandStatus = plot.Peatland
		out.PeatlandOverlapHa = plot.Hectares(peat.areaHa)
	default:
		out.PeatlandStatus = plot.NotPeatland
	}

	out.ComplianceStatus = deriveCompliance(out.OverallRisk, out.WDPAStatus, out.PeatlandStatus, peatlandGate)
	return out
}

func deriveCompliance(risk plot.RiskLevel, wdpa plot.WDPAStatus, peat plot.PeatlandStatus, peatlandGate bool) plot.ComplianceStatus {
	if risk == plot.RiskHigh {
		return plot.NonCompliant
	}
	if wdpa == plot.Protected {
		return plot.NonCompliant
	}
	if peatlandGate && peat == plot.Peatland {
		return plot.NonCompliant
	}
	// A COMPLIANT verdict requires every input to be known; UNKNOWN is
	// never coerced to COMPLIANT.
	if risk == plot.RiskUnknown || wdpa == plot.WDPAUnknown || (peatlandGate && peat == plot.PeatlandUnknown) {
		return plot.ComplianceUnknown
	}
	return plot.Compliant
}
