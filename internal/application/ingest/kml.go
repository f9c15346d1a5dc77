package ingest

import (
	"encoding/xml"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verdantio/plotproof/pkg/errors"
)

// KML input support.  Placemark polygons are converted to the same raw
// feature representation the GeoJSON path produces, then run through the
// normal pipeline so Z-stripping, validation, and ID resolution behave
// identically for both formats.

type kmlRoot struct {
	XMLName  xml.Name  `xml:"kml"`
	Document kmlFolder `xml:"Document"`
}

type kmlFolder struct {
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string          `xml:"name"`
	Data          []kmlData       `xml:"ExtendedData>Data"`
	SimpleData    []kmlSimpleData `xml:"ExtendedData>SchemaData>SimpleData"`
	Polygon       *kmlPolygon     `xml:"Polygon"`
	MultiGeometry *kmlMulti       `xml:"MultiGeometry"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlRing `xml:"innerBoundaryIs>LinearRing"`
}

type kmlRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlMulti struct {
	Polygons []kmlPolygon `xml:"Polygon"`
}

// NormalizeFile dispatches on the file extension.  GeoJSON (.geojson, .json)
// and KML (.kml) are accepted.
func (n *Normalizer) NormalizeFile(filename string, raw []byte) (*Report, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".kml":
		return n.NormalizeKML(raw)
	case ".geojson", ".json", "":
		return n.Normalize(raw)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedFormat,
			"unsupported file extension %q; expected .geojson, .json, or .kml", filepath.Ext(filename))
	}
}

// NormalizeKML parses KML bytes, converts every Placemark polygon into a raw
// feature, and normalizes the result.
func (n *Normalizer) NormalizeKML(raw []byte) (*Report, error) {
	var root kmlRoot
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKMLParse, "input is not parseable KML")
	}

	placemarks := collectPlacemarks(root.Document)
	if len(placemarks) == 0 {
		return nil, errors.New(errors.ErrCodeNoFeatures, "KML document contains no placemarks")
	}

	features := make([]interface{}, 0, len(placemarks))
	for _, pm := range placemarks {
		features = append(features, placemarkToFeature(pm))
	}
	return n.normalizeFeatures(features)
}

func collectPlacemarks(folder kmlFolder) []kmlPlacemark {
	out := append([]kmlPlacemark(nil), folder.Placemarks...)
	for _, sub := range folder.Folders {
		out = append(out, collectPlacemarks(sub)...)
	}
	return out
}

func placemarkToFeature(pm kmlPlacemark) map[string]interface{} {
	props := map[string]interface{}{}
	if pm.Name != "" {
		props["Name"] = pm.Name
	}
	for _, d := range pm.Data {
		props[d.Name] = strings.TrimSpace(d.Value)
	}
	for _, d := range pm.SimpleData {
		props[d.Name] = strings.TrimSpace(d.Value)
	}

	var geometry map[string]interface{}
	switch {
	case pm.MultiGeometry != nil && len(pm.MultiGeometry.Polygons) > 0:
		polys := make([]interface{}, 0, len(pm.MultiGeometry.Polygons))
		for _, p := range pm.MultiGeometry.Polygons {
			polys = append(polys, polygonCoordinates(p))
		}
		geometry = map[string]interface{}{"type": "MultiPolygon", "coordinates": polys}
	case pm.Polygon != nil:
		geometry = map[string]interface{}{"type": "Polygon", "coordinates": polygonCoordinates(*pm.Polygon)}
	}

	feature := map[string]interface{}{
		"type":       "Feature",
		"properties": props,
	}
	if geometry != nil {
		feature["geometry"] = geometry
	}
	return feature
}

// polygonCoordinates converts a KML polygon to GeoJSON-shaped nested
// coordinate lists.  Altitude values are kept here; the shared Z-stripping
// pass removes them.
func polygonCoordinates(p kmlPolygon) []interface{} {
	rings := []interface{}{parseCoordinateString(p.Outer.Coordinates)}
	for _, inner := range p.Inner {
		rings = append(rings, parseCoordinateString(inner.Coordinates))
	}
	return rings
}

// parseCoordinateString parses the KML "lon,lat[,alt]" whitespace-separated
// tuple list.
func parseCoordinateString(s string) []interface{} {
	var ring []interface{}
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		var pos []interface{}
		valid := true
		for _, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				valid = false
				break
			}
			pos = append(pos, f)
		}
		if valid {
			ring = append(ring, pos)
		}
	}
	return ring
}
