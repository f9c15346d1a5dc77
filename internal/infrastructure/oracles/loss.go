package oracles

import (
	"context"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/domain/plot"
)

// GFW and SBTN report absolute loss in hectares; JRC reports a fractional
// loss rate that is multiplied by the plot area.

type gfwOracle struct{ oracleClient }

// NewGFW builds the Global Forest Watch loss client.
func NewGFW(ep config.OracleEndpoint) classify.LossOracle {
	return &gfwOracle{newOracleClient(string(plot.DatasetGFW), ep)}
}

func (o *gfwOracle) Dataset() plot.Dataset { return plot.DatasetGFW }

func (o *gfwOracle) Loss(ctx context.Context, p plot.NormalizedPlot) (classify.LossResult, error) {
	// plot.Hectares coerces the strings/blanks/nulls these feeds are known
	// to emit.
	var resp struct {
		LossHa plot.Hectares `json:"loss_ha"`
	}
	if err := o.post(ctx, "/v1/loss", p, &resp); err != nil {
		return classify.LossResult{}, err
	}
	return classify.LossResult{AreaHectares: float64(resp.LossHa)}, nil
}

type jrcOracle struct{ oracleClient }

// NewJRC builds the JRC Tropical Moist Forest loss client.
func NewJRC(ep config.OracleEndpoint) classify.LossOracle {
	return &jrcOracle{newOracleClient(string(plot.DatasetJRC), ep)}
}

func (o *jrcOracle) Dataset() plot.Dataset { return plot.DatasetJRC }

func (o *jrcOracle) Loss(ctx context.Context, p plot.NormalizedPlot) (classify.LossResult, error) {
	var resp struct {
		LossFraction plot.Hectares `json:"loss_fraction"`
	}
	if err := o.post(ctx, "/v1/disturbance", p, &resp); err != nil {
		return classify.LossResult{}, err
	}
	return classify.LossResult{AreaHectares: float64(resp.LossFraction) * float64(p.AreaHectares)}, nil
}

type sbtnOracle struct{ oracleClient }

// NewSBTN builds the SBTN natural-lands loss client.
func NewSBTN(ep config.OracleEndpoint) classify.LossOracle {
	return &sbtnOracle{newOracleClient(string(plot.DatasetSBTN), ep)}
}

func (o *sbtnOracle) Dataset() plot.Dataset { return plot.DatasetSBTN }

func (o *sbtnOracle) Loss(ctx context.Context, p plot.NormalizedPlot) (classify.LossResult, error) {
	var resp struct {
		LossHa plot.Hectares `json:"loss_ha"`
	}
	if err := o.post(ctx, "/v1/natural-lands-loss", p, &resp); err != nil {
		return classify.LossResult{}, err
	}
	return classify.LossResult{AreaHectares: float64(resp.LossHa)}, nil
}
