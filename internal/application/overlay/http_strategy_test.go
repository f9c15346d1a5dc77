package overlay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/verdantio/plotproof/pkg/errors"
)

const wdpaResponse = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"name": "Kakum"}, "geometry": {"type": "Polygon", "coordinates": [[[-1.43,5.30],[-1.30,5.30],[-1.30,5.43],[-1.43,5.30]]]}}
	]
}`

func TestHTTPStrategyFetch(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"west":  r.URL.Query().Get("west"),
			"north": r.URL.Query().Get("north"),
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write([]byte(wdpaResponse))
	}))
	defer srv.Close()

	s := NewHTTPStrategy(SourcePrimary, srv.URL, time.Second)
	fc, err := s.Fetch(context.Background(), LayerWDPA, Bounds{West: -2.5, South: 5, East: -1, North: 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("want 1 feature, got %d", len(fc.Features))
	}
	if gotPath != "/wdpa" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery["west"] != "-2.5" || gotQuery["north"] != "6" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestHTTPStrategyNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPStrategy(SourceSecondary, srv.URL, time.Second)
	_, err := s.Fetch(context.Background(), LayerGFW, testBounds)
	if !errors.IsCode(err, errors.ErrCodeExternalService) {
		t.Errorf("want ExternalService, got %v", err)
	}
}

func TestHTTPStrategyBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not geojson</html>`))
	}))
	defer srv.Close()

	s := NewHTTPStrategy(SourcePrimary, srv.URL, time.Second)
	_, err := s.Fetch(context.Background(), LayerJRC, testBounds)
	if !errors.IsCode(err, errors.ErrCodeSerialization) {
		t.Errorf("want Serialization, got %v", err)
	}
}

func TestHTTPStrategyUnreachable(t *testing.T) {
	s := NewHTTPStrategy(SourcePrimary, "http://127.0.0.1:1", 200*time.Millisecond)
	_, err := s.Fetch(context.Background(), LayerWDPA, testBounds)
	if !errors.IsCode(err, errors.ErrCodeExternalService) {
		t.Errorf("want ExternalService, got %v", err)
	}
}

func TestStaticStrategyFiltersToViewport(t *testing.T) {
	s := NewStaticStrategy()

	// Viewport over coastal Ghana: contains Kakum, not the Indonesian parks.
	fc, err := s.Fetch(context.Background(), LayerWDPA, Bounds{West: -2, South: 5, East: -1, North: 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("want 1 feature in viewport, got %d", len(fc.Features))
	}
	if name, _ := fc.Features[0].Properties["name"].(string); name != "Kakum National Park" {
		t.Errorf("got %q", name)
	}

	// Open-ocean viewport: valid empty result.
	empty, err := s.Fetch(context.Background(), LayerWDPA, Bounds{West: -40, South: 20, East: -35, North: 25})
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Features) != 0 {
		t.Errorf("want empty, got %d features", len(empty.Features))
	}
}

func TestStaticStrategyAllLayersBundled(t *testing.T) {
	s := NewStaticStrategy()
	world := Bounds{West: -180, South: -90, East: 180, North: 90}
	for _, layer := range Layers() {
		fc, err := s.Fetch(context.Background(), layer, world)
		if err != nil {
			t.Errorf("layer %s: %v", layer, err)
			continue
		}
		if len(fc.Features) == 0 {
			t.Errorf("layer %s: bundled dataset is empty", layer)
		}
	}
}

func TestStaticStrategyUnknownLayer(t *testing.T) {
	s := NewStaticStrategy()
	_, err := s.Fetch(context.Background(), "bathymetry", testBounds)
	if !errors.IsCode(err, errors.ErrCodeUnknownLayer) {
		t.Errorf("want UnknownLayer, got %v", err)
	}
}
