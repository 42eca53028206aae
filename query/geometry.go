package query

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"

	"github.com/darshanpandit/tidyfaf/reader"
)

// FlowLine pairs a flow row with a straight line between the
// centroids of its origin and destination zones.
type FlowLine struct {
	Origin int64
	Dest   int64
	Line   orb.LineString
	Row    map[string]interface{}
}

// ZoneCentroids loads the zone boundary table and returns the planar
// centroid of each zone's geometry.
func ZoneCentroids(c *Cache) (map[int64]orb.Point, error) {
	rows, err := c.Raw(reader.ZoneGeometry)
	if err != nil {
		return nil, err
	}
	centroids := make(map[int64]orb.Point, len(rows))
	for _, row := range rows {
		zone, ok := reader.AsInt64(row[colZoneID])
		if !ok {
			continue
		}
		raw, ok := row[colGeometry].([]byte)
		if !ok {
			if s, sok := row[colGeometry].(string); sok {
				raw = []byte(s)
			} else {
				// Some zone files ship plain coordinate columns
				// instead of boundary geometry.
				lon, okLon := reader.AsFloat64(row["lon"])
				lat, okLat := reader.AsFloat64(row["lat"])
				if okLon && okLat {
					centroids[zone] = orb.Point{lon, lat}
				}
				continue
			}
		}
		geom, err := wkb.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding geometry for zone %d: %w", zone, err)
		}
		centroid, _ := planar.CentroidArea(geom)
		centroids[zone] = centroid
	}
	return centroids, nil
}

// FlowLines executes the query and converts its rows to lines between
// origin and destination zone centroids. Only zone-level variants
// carry the geography for this; state and network queries fail with
// ErrUnsupported.
func (q Query) FlowLines() ([]FlowLine, []string, error) {
	if q.err != nil {
		return nil, nil, q.err
	}
	if !q.strat.supports(keyOriginZones) {
		return nil, nil, fmt.Errorf("%w: %s query has no zone geography to draw", ErrUnsupported, q.strat.name())
	}
	res, err := q.GetFormat(FormatWide)
	if err != nil {
		return nil, nil, err
	}
	lines, warnings, err := flowLines(q.cache, res.Rows)
	if err != nil {
		return nil, nil, err
	}
	return lines, append(res.Warnings, warnings...), nil
}

// flowLines builds origin-to-destination lines for flow rows using
// zone centroids. Rows whose origin or destination zone has no known
// geometry are dropped and counted in a warning.
func flowLines(c *Cache, rows []map[string]interface{}) ([]FlowLine, []string, error) {
	centroids, err := ZoneCentroids(c)
	if err != nil {
		return nil, nil, err
	}

	var lines []FlowLine
	dropped := 0
	for _, row := range rows {
		orig, okO := reader.AsInt64(row[colOriginZone])
		dest, okD := reader.AsInt64(row[colDestZone])
		if !okO || !okD {
			dropped++
			continue
		}
		from, okF := centroids[orig]
		to, okT := centroids[dest]
		if !okF || !okT {
			dropped++
			continue
		}
		lines = append(lines, FlowLine{
			Origin: orig,
			Dest:   dest,
			Line:   orb.LineString{from, to},
			Row:    row,
		})
	}

	var warnings []string
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows dropped for missing zone geometry", dropped))
	}
	return lines, warnings, nil
}
