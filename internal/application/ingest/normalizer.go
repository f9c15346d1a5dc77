// Package ingest turns user-supplied plot boundary files (GeoJSON or KML)
// into normalized plots: elevation stripped, geometry validated, identifiers
// and country tags canonicalized.  Features that fail structural checks are
// excluded individually and recorded as issues; the batch only fails when
// nothing at all survives.
package ingest

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// IssueKind categorizes a per-feature normalization finding.
type IssueKind string

const (
	IssueMissingGeometry IssueKind = "missing_geometry"
	IssueInvalidGeometry IssueKind = "invalid_geometry"
	IssueNotAnObject     IssueKind = "not_an_object"
	IssueSynthesizedID   IssueKind = "synthesized_id"
	IssueDuplicateID     IssueKind = "duplicate_id"
)

// excluding reports whether the issue kind excludes the feature from the
// normalized output.  Synthesized and duplicate IDs are informational; the
// plot is still produced.
func (k IssueKind) excluding() bool {
	switch k {
	case IssueSynthesizedID, IssueDuplicateID:
		return false
	default:
		return true
	}
}

// Issue records one per-feature finding.
type Issue struct {
	FeatureIndex int       `json:"featureIndex"`
	PlotID       string    `json:"plotId,omitempty"`
	Kind         IssueKind `json:"kind"`
	Message      string    `json:"message"`
}

// Report is the output of a normalization run.
type Report struct {
	Plots  []plot.NormalizedPlot `json:"plots"`
	Issues []Issue               `json:"issues"`

	// MajorityFailed is set when more than half of the submitted features
	// were excluded.  The caller should surface a warning but proceed
	// with whatever succeeded.
	MajorityFailed bool `json:"majorityFailed"`
}

// Normalizer converts raw feature collections into normalized plots.
type Normalizer struct {
	logger logging.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(log logging.Logger) *Normalizer {
	return &Normalizer{logger: log.Named("ingest")}
}

// Normalize parses raw GeoJSON bytes and normalizes every feature.  A bare
// Feature is auto-wrapped into a singleton collection.  Structural errors
// (not JSON, wrong top-level type, missing/empty features) reject the whole
// input; per-feature errors exclude only that feature.
func (n *Normalizer) Normalize(raw []byte) (*Report, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotGeoJSON, "input is not a JSON object")
	}

	var features []interface{}
	switch typ, _ := doc["type"].(string); typ {
	case "Feature":
		features = []interface{}{doc}
	case "FeatureCollection":
		list, ok := doc["features"].([]interface{})
		if !ok {
			return nil, errors.New(errors.ErrCodeNoFeatures, "features member is missing or not a list")
		}
		if len(list) == 0 {
			return nil, errors.New(errors.ErrCodeNoFeatures, "feature collection is empty")
		}
		features = list
	default:
		return nil, errors.Newf(errors.ErrCodeNotGeoJSON,
			"top-level type %q is neither Feature nor FeatureCollection", typ)
	}

	return n.normalizeFeatures(features)
}

func (n *Normalizer) normalizeFeatures(features []interface{}) (*Report, error) {
	report := &Report{}
	seenIDs := make(map[string]struct{}, len(features))
	excluded := 0

	for i, f := range features {
		p, issues := n.normalizeFeature(f, i)
		for _, iss := range issues {
			report.Issues = append(report.Issues, iss)
			if iss.Kind.excluding() {
				excluded++
			}
		}
		if p == nil {
			continue
		}
		if _, dup := seenIDs[p.PlotID]; dup {
			report.Issues = append(report.Issues, Issue{
				FeatureIndex: i,
				PlotID:       p.PlotID,
				Kind:         IssueDuplicateID,
				Message:      "plot id already used by an earlier feature",
			})
		}
		seenIDs[p.PlotID] = struct{}{}
		report.Plots = append(report.Plots, *p)
	}

	if len(report.Plots) == 0 {
		return report, errors.New(errors.ErrCodeAllFeaturesFailed,
			"no feature in the upload produced a usable plot boundary")
	}

	if excluded*2 > len(features) {
		report.MajorityFailed = true
		n.logger.Warn("majority of submitted features failed normalization",
			logging.Int("submitted", len(features)),
			logging.Int("excluded", excluded),
		)
	}

	return report, nil
}

// normalizeFeature returns the normalized plot (nil when excluded) and any
// issues found.
func (n *Normalizer) normalizeFeature(f interface{}, index int) (*plot.NormalizedPlot, []Issue) {
	fmap, ok := f.(map[string]interface{})
	if !ok {
		return nil, []Issue{{FeatureIndex: index, Kind: IssueNotAnObject, Message: "feature is not a JSON object"}}
	}

	props, _ := fmap["properties"].(map[string]interface{})
	plotID, synthesized := resolvePlotID(props, fmap["id"], index)

	geomMap, ok := fmap["geometry"].(map[string]interface{})
	if !ok || geomMap == nil {
		return nil, []Issue{{FeatureIndex: index, PlotID: plotID, Kind: IssueMissingGeometry, Message: "feature has no geometry"}}
	}

	stripZGeometry(geomMap)

	geomRaw, err := json.Marshal(geomMap)
	if err != nil {
		return nil, []Issue{{FeatureIndex: index, PlotID: plotID, Kind: IssueInvalidGeometry, Message: "geometry cannot be re-encoded"}}
	}
	gj, err := geojson.UnmarshalGeometry(geomRaw)
	if err != nil {
		return nil, []Issue{{FeatureIndex: index, PlotID: plotID, Kind: IssueInvalidGeometry, Message: "geometry is not parseable: " + err.Error()}}
	}

	geom := gj.Geometry()
	if err := plot.ValidateRings(geom); err != nil {
		return nil, []Issue{{FeatureIndex: index, PlotID: plotID, Kind: IssueInvalidGeometry, Message: err.Error()}}
	}

	var issues []Issue
	if synthesized {
		issues = append(issues, Issue{
			FeatureIndex: index,
			PlotID:       plotID,
			Kind:         IssueSynthesizedID,
			Message:      "feature carried no identifier; id was synthesized from its position",
		})
	}

	return &plot.NormalizedPlot{
		PlotID:        plotID,
		Country:       resolveCountry(props),
		Geometry:      geojson.NewGeometry(geom),
		AreaHectares:  plot.AreaHectaresOf(geom),
		SynthesizedID: synthesized,
	}, issues
}

// coordinateDepth is the nesting depth of the coordinates array for each
// geometry type: 0 means the coordinates member is a single position.
func coordinateDepth(typ string) (int, bool) {
	switch typ {
	case "Point":
		return 0, true
	case "LineString", "MultiPoint":
		return 1, true
	case "Polygon", "MultiLineString":
		return 2, true
	case "MultiPolygon":
		return 3, true
	default:
		return 0, false
	}
}

// stripZGeometry drops any third (Z) coordinate at every nesting level,
// recursing into GeometryCollection members.  Applying it to an already
// 2-D geometry is a no-op.
func stripZGeometry(geom map[string]interface{}) {
	typ, _ := geom["type"].(string)
	if typ == "GeometryCollection" {
		if members, ok := geom["geometries"].([]interface{}); ok {
			for _, m := range members {
				if gm, ok := m.(map[string]interface{}); ok {
					stripZGeometry(gm)
				}
			}
		}
		return
	}
	depth, ok := coordinateDepth(typ)
	if !ok {
		return
	}
	if coords, present := geom["coordinates"]; present {
		geom["coordinates"] = stripZCoordinates(coords, depth)
	}
}

func stripZCoordinates(v interface{}, depth int) interface{} {
	if depth == 0 {
		if pos, ok := v.([]interface{}); ok && len(pos) > 2 {
			return pos[:2]
		}
		return v
	}
	if list, ok := v.([]interface{}); ok {
		for i := range list {
			list[i] = stripZCoordinates(list[i], depth-1)
		}
	}
	return v
}
