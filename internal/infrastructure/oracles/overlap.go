package oracles

import (
	"context"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/domain/plot"
)

type overlapResponse struct {
	Overlaps  bool          `json:"overlaps"`
	OverlapHa plot.Hectares `json:"overlap_ha"`
}

type overlapOracle struct {
	oracleClient
	path string
}

func (o *overlapOracle) Name() string { return o.name }

func (o *overlapOracle) Overlap(ctx context.Context, p plot.NormalizedPlot) (classify.OverlapResult, error) {
	var resp overlapResponse
	if err := o.post(ctx, o.path, p, &resp); err != nil {
		return classify.OverlapResult{}, err
	}
	return classify.OverlapResult{
		Overlaps:     resp.Overlaps,
		AreaHectares: float64(resp.OverlapHa),
	}, nil
}

// NewWDPA builds the protected-areas overlap client.
func NewWDPA(ep config.OracleEndpoint) classify.OverlapOracle {
	return &overlapOracle{
		oracleClient: newOracleClient("wdpa", ep),
		path:         "/v1/protected-overlap",
	}
}

// NewPeatland builds the peatland overlap client.
func NewPeatland(ep config.OracleEndpoint) classify.OverlapOracle {
	return &overlapOracle{
		oracleClient: newOracleClient("peatland", ep),
		path:         "/v1/peatland-overlap",
	}
}
