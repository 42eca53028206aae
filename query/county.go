package query

import (
	"errors"
	"fmt"
	"sort"

	"github.com/darshanpandit/tidyfaf/reader"
)

// County disaggregation splits zone-to-zone flows across counties
// using published factor tables. Factors are keyed by zone and
// five-bucket commodity group and exist per mode for origins and
// destinations separately; a flow's share of a county pair is the
// product of its origin and destination factors.

// factorModes maps FAF mode codes to the modes with published county
// factor tables.
var factorModes = map[int64]string{
	1: "truck",
	2: "rail",
	3: "water",
	6: "pipeline",
}

// sctgGroup buckets an SCTG2 commodity code into the five-group
// scheme the factor tables are keyed by.
func sctgGroup(code int64) string {
	switch {
	case code >= 1 && code <= 9:
		return "sctg0109"
	case code >= 10 && code <= 14:
		return "sctg1014"
	case code >= 15 && code <= 19:
		return "sctg1519"
	case code >= 20 && code <= 33:
		return "sctg2033"
	default:
		return "sctg3499"
	}
}

type countyStrategy struct {
	flowStrategy
}

// NewCountyQuery builds a query over zone flows disaggregated to
// county-to-county pairs.
func NewCountyQuery(opts ...Option) Query {
	return newQuery(&countyStrategy{flowStrategy{
		variant:   "county",
		ds:        reader.Regional,
		zoneLevel: true,
		defFormat: FormatWide,
		originCol: colOriginCounty,
		destCol:   colDestCounty,
		keys: flowKeys(append(zoneGeographyKeys(),
			keyOriginCounties, keyDestinationCounties)...),
	}}, opts)
}

// ByOriginCounty aggregates disaggregated flows by origin county.
func (q Query) ByOriginCounty() Query { return q.GroupBy(colOriginCounty) }

// ByDestinationCounty aggregates disaggregated flows by destination
// county.
func (q Query) ByDestinationCounty() Query { return q.GroupBy(colDestCounty) }

func (s *countyStrategy) run(q *Query, format Format) (*Result, error) {
	preds, warnings, err := s.pushdown(q)
	if err != nil {
		return nil, err
	}
	rows, err := q.cache.Dataset(s.ds, s.flowStrategy.columns(q.filters), preds)
	if err != nil {
		return nil, err
	}
	rows = applyRowFilters(rows, preds, q.filters)

	rows, modeWarnings, err := s.disaggregate(q, rows)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, modeWarnings...)
	rows = applyCountyFilters(rows, q.filters)

	var cols []string
	if format == FormatLong {
		rows, cols = toLong(rows)
	} else {
		cols = append(idColumns(rows), metricColumns(rows)...)
	}
	return &Result{Rows: rows, Columns: cols, Warnings: warnings}, nil
}

// disaggregate splits each zone flow across county pairs mode by
// mode. Modes without factor tables pass through at zone granularity
// with a warning; a mode whose factor files are absent on disk is
// skipped the same way.
func (s *countyStrategy) disaggregate(q *Query, rows []map[string]interface{}) ([]map[string]interface{}, []string, error) {
	byMode := make(map[int64][]map[string]interface{})
	var modes []int64
	for _, row := range rows {
		code, ok := reader.AsInt64(row[colMode])
		if !ok {
			continue
		}
		row[colSCTGGroup] = sctgGroup(codeOf(row, colCommodity))
		if _, seen := byMode[code]; !seen {
			modes = append(modes, code)
		}
		byMode[code] = append(byMode[code], row)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })

	var out []map[string]interface{}
	var warnings []string
	for _, code := range modes {
		name, hasFactors := factorModes[code]
		if !hasFactors {
			warnings = append(warnings, fmt.Sprintf("mode %d has no county factors; rows kept at zone granularity", code))
			out = append(out, byMode[code]...)
			continue
		}
		split, err := s.disaggregateMode(q, name, byMode[code])
		if errors.Is(err, reader.ErrDatasetNotFound) {
			warnings = append(warnings, fmt.Sprintf("county factors for mode %s not found; rows kept at zone granularity", name))
			out = append(out, byMode[code]...)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		out = append(out, split...)
	}
	return out, warnings, nil
}

func (s *countyStrategy) disaggregateMode(q *Query, mode string, rows []map[string]interface{}) ([]map[string]interface{}, error) {
	origFactors, err := q.cache.Raw(reader.CountyOriginFactors(mode))
	if err != nil {
		return nil, err
	}
	destFactors, err := q.cache.Raw(reader.CountyDestinationFactors(mode))
	if err != nil {
		return nil, err
	}

	// Shrink the factor tables to the requested counties before the
	// joins fan rows out.
	f := q.filters
	if codes, ok := f.Codes(keyOriginCounties); ok {
		origFactors = filterByPredicate(origFactors, reader.In(colOriginCounty, codes...))
	}
	if codes, ok := f.Codes(keyDestinationCounties); ok {
		destFactors = filterByPredicate(destFactors, reader.In(colDestCounty, codes...))
	}

	joined := innerJoinOn(rows, []string{colOriginZone, colSCTGGroup},
		origFactors, []string{colOriginZone, colSCTGGroup})
	joined = innerJoinOn(joined, []string{colDestZone, colSCTGGroup},
		destFactors, []string{colDestZone, colSCTGGroup})

	for _, row := range joined {
		fo, okO := reader.AsFloat64(row[colOriginFactor])
		fd, okD := reader.AsFloat64(row[colDestFactor])
		if !okO || !okD {
			continue
		}
		share := fo * fd
		for col, v := range row {
			if !isMetricColumn(col) {
				continue
			}
			if f, ok := reader.AsFloat64(v); ok {
				row[col] = f * share
			}
		}
	}
	return joined, nil
}

func applyCountyFilters(rows []map[string]interface{}, f FilterState) []map[string]interface{} {
	var preds []reader.Predicate
	if codes, ok := f.Codes(keyOriginCounties); ok {
		preds = append(preds, reader.In(colOriginCounty, codes...))
	}
	if codes, ok := f.Codes(keyDestinationCounties); ok {
		preds = append(preds, reader.In(colDestCounty, codes...))
	}
	if len(preds) == 0 {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		if reader.Match(row, preds) {
			out = append(out, row)
		}
	}
	return out
}

func filterByPredicate(rows []map[string]interface{}, p reader.Predicate) []map[string]interface{} {
	out := rows[:0:0]
	for _, row := range rows {
		if reader.Match(row, []reader.Predicate{p}) {
			out = append(out, row)
		}
	}
	return out
}

func codeOf(row map[string]interface{}, col string) int64 {
	n, _ := reader.AsInt64(row[col])
	return n
}
