package query

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/darshanpandit/tidyfaf/reader"
)

// squareAround builds a unit square polygon centered on a point, so
// the planar centroid is the point itself.
func squareAround(t *testing.T, x, y float64) []byte {
	t.Helper()
	poly := orb.Polygon{orb.Ring{
		{x - 0.5, y - 0.5}, {x + 0.5, y - 0.5},
		{x + 0.5, y + 0.5}, {x - 0.5, y + 0.5},
		{x - 0.5, y - 0.5},
	}}
	data, err := wkb.Marshal(poly)
	if err != nil {
		t.Fatalf("failed to encode fixture polygon: %v", err)
	}
	return data
}

func nearPoint(p orb.Point, x, y float64) bool {
	return math.Abs(p[0]-x) < 1e-9 && math.Abs(p[1]-y) < 1e-9
}

func zoneGeometryRows(t *testing.T) []map[string]interface{} {
	t.Helper()
	return []map[string]interface{}{
		{"FAFZONE": int64(61), "geometry": squareAround(t, 10, 20)},
		{"FAFZONE": int64(121), "geometry": squareAround(t, 30, 40)},
	}
}

func TestZoneCentroids(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.ZoneGeometry: zoneGeometryRows(t),
	})

	centroids, err := ZoneCentroids(cache)
	if err != nil {
		t.Fatalf("ZoneCentroids() error = %v", err)
	}
	if len(centroids) != 2 {
		t.Fatalf("ZoneCentroids() returned %d zones, want 2", len(centroids))
	}
	if got := centroids[61]; !nearPoint(got, 10, 20) {
		t.Errorf("centroid of 61 = %v, want (10, 20)", got)
	}
	if got := centroids[121]; !nearPoint(got, 30, 40) {
		t.Errorf("centroid of 121 = %v, want (30, 40)", got)
	}
}

func TestZoneCentroidsCoordinateColumns(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.ZoneGeometry: {
			{"FAFZONE": int64(62), "lon": float64(50), "lat": float64(60)},
		},
	})

	centroids, err := ZoneCentroids(cache)
	if err != nil {
		t.Fatalf("ZoneCentroids() error = %v", err)
	}
	if got := centroids[62]; got != (orb.Point{50, 60}) {
		t.Errorf("centroid of 62 = %v, want (50, 60)", got)
	}
}

func TestFlowLines(t *testing.T) {
	cache, _ := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.Regional:     regionalRows(),
		reader.ZoneGeometry: zoneGeometryRows(t),
	})

	// Zone 62 has no geometry, so the 62 -> 121 flow drops.
	lines, warnings, err := NewRegionalQuery(WithCache(cache)).Years(2020).FlowLines()
	if err != nil {
		t.Fatalf("FlowLines() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("FlowLines() returned %d lines, want 2", len(lines))
	}

	first := lines[0]
	if first.Origin != 61 || first.Dest != 121 {
		t.Errorf("first line = %d -> %d, want 61 -> 121", first.Origin, first.Dest)
	}
	if !nearPoint(first.Line[0], 10, 20) || !nearPoint(first.Line[1], 30, 40) {
		t.Errorf("first line endpoints = %v, want centroids of 61 and 121", first.Line)
	}

	found := false
	for _, w := range warnings {
		if strings.Contains(w, "dropped") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a dropped-row count", warnings)
	}
}
