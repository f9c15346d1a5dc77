package overlay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/pkg/errors"
)

const maxOverlayResponseBytes = 16 << 20

// HTTPStrategy fetches a layer as GeoJSON from a vector tile service.
// Primary and secondary endpoints differ only in base URL and the source
// they report.
type HTTPStrategy struct {
	source  Source
	baseURL string
	client  *http.Client
}

// NewHTTPStrategy builds a strategy against baseURL.  The service is
// expected to answer GET {baseURL}/{layer} with a FeatureCollection clipped
// to the west/south/east/north query bounds.
func NewHTTPStrategy(source Source, baseURL string, timeout time.Duration) *HTTPStrategy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStrategy{
		source:  source,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStrategy) Source() Source { return s.source }

func (s *HTTPStrategy) Fetch(ctx context.Context, layer string, bounds Bounds) (*geojson.FeatureCollection, error) {
	q := url.Values{}
	q.Set("west", formatDegrees(bounds.West))
	q.Set("south", formatDegrees(bounds.South))
	q.Set("east", formatDegrees(bounds.East))
	q.Set("north", formatDegrees(bounds.North))

	reqURL := fmt.Sprintf("%s/%s?%s", s.baseURL, url.PathEscape(layer), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build overlay request")
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "overlay service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeExternalService, "overlay service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOverlayResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read overlay response")
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "overlay response is not a feature collection")
	}
	return fc, nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
