// Package oracles implements the HTTP clients behind the classification
// interfaces: three forest-loss datasets and two overlap layers.  Every
// client shares one request shape and differs only in endpoint and response
// decoding.
package oracles

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

const maxOracleResponseBytes = 1 << 20

// screenRequest is the wire form every oracle accepts: the plot footprint
// plus its identifiers for upstream audit logs.
type screenRequest struct {
	PlotID       string            `json:"plotId"`
	Country      string            `json:"country"`
	AreaHectares float64           `json:"areaHectares"`
	Geometry     *geojson.Geometry `json:"geometry"`
}

type oracleClient struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func newOracleClient(name string, ep config.OracleEndpoint) oracleClient {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return oracleClient{
		name:    name,
		baseURL: ep.BaseURL,
		apiKey:  ep.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// post sends the plot to path and decodes the JSON answer into dest.
func (c oracleClient) post(ctx context.Context, path string, p plot.NormalizedPlot, dest interface{}) error {
	body, err := json.Marshal(screenRequest{
		PlotID:       p.PlotID,
		Country:      p.Country,
		AreaHectares: float64(p.AreaHectares),
		Geometry:     p.Geometry,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode oracle request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build oracle request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, errors.ErrCodeCanceled, "oracle call canceled")
		}
		return errors.Wrapf(err, errors.ErrCodeOracleUnreachable, "oracle %s unreachable", c.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeOracleBadResponse, "oracle %s returned status %d", c.name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOracleResponseBytes))
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeOracleUnreachable, "failed to read oracle %s response", c.name)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrapf(err, errors.ErrCodeOracleBadResponse, "oracle %s sent an unparseable response", c.name)
	}
	return nil
}
