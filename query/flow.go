package query

import (
	"github.com/darshanpandit/tidyfaf/metadata"
	"github.com/darshanpandit/tidyfaf/reader"
)

// flowStrategy runs queries over the origin-destination flow tables.
// Regional and state queries share the pipeline and differ only in
// dataset, geography granularity, and accepted filters.
type flowStrategy struct {
	variant   string
	ds        reader.Dataset
	zoneLevel bool
	defFormat Format
	originCol string
	destCol   string
	keys      map[string]bool
}

func (s *flowStrategy) name() string          { return s.variant }
func (s *flowStrategy) defaultFormat() Format { return s.defFormat }
func (s *flowStrategy) supports(key string) bool {
	return s.keys[key]
}
func (s *flowStrategy) originColumn() string { return s.originCol }
func (s *flowStrategy) destColumn() string   { return s.destCol }

// flowKeys are the filters every flow variant accepts.
func flowKeys(extra ...string) map[string]bool {
	keys := map[string]bool{
		keyCommodities:   true,
		keyModes:         true,
		keyTradeTypes:    true,
		keyDistanceBands: true,
		keyYears:         true,
		keyMinTons:       true,
		keyMinValue:      true,
	}
	for _, k := range extra {
		keys[k] = true
	}
	return keys
}

func zoneGeographyKeys() []string {
	return []string{keyOriginStates, keyOriginZones, keyDestinationStates, keyDestinationZones}
}

func stateGeographyKeys() []string {
	return []string{keyOriginStates, keyDestinationStates}
}

// NewRegionalQuery builds a query over zone-to-zone flows for the
// actual-data years.
func NewRegionalQuery(opts ...Option) Query {
	return newQuery(&flowStrategy{
		variant:   "regional",
		ds:        reader.Regional,
		zoneLevel: true,
		defFormat: FormatWide,
		originCol: colOriginZone,
		destCol:   colDestZone,
		keys:      flowKeys(zoneGeographyKeys()...),
	}, opts)
}

// NewStateQuery builds a query over the state-to-state flow table.
// Zone filters are rejected; use a regional query for zone
// granularity.
func NewStateQuery(opts ...Option) Query {
	return newQuery(&flowStrategy{
		variant:   "state",
		ds:        reader.State,
		zoneLevel: false,
		defFormat: FormatWide,
		originCol: colOriginState,
		destCol:   colDestState,
		keys:      flowKeys(stateGeographyKeys()...),
	}, opts)
}

// pushdown translates the query filters into scan predicates, loading
// the reference tables only when state filters must expand to zones.
func (s *flowStrategy) pushdown(q *Query) ([]reader.Predicate, []string, error) {
	f := q.filters
	if !s.zoneLevel {
		preds, err := statePushdown(f)
		return preds, nil, err
	}
	var md *metadata.Metadata
	if f.Has(keyOriginStates) || f.Has(keyDestinationStates) {
		loaded, err := q.metadata()
		if err != nil {
			return nil, nil, err
		}
		md = loaded
	}
	return zonePushdown(f, md)
}

// selectedYears returns the year filter or the full actual-data range.
func selectedYears(f FilterState) []int {
	codes, ok := f.Codes(keyYears)
	if !ok {
		return ActualYears()
	}
	years := make([]int, len(codes))
	for i, c := range codes {
		years[i] = int(c)
	}
	return years
}

// columns builds the projection: every dimension column plus the
// metric columns for the selected years and any threshold years.
// Columns absent from the file are dropped by the reader.
func (s *flowStrategy) columns(f FilterState) []string {
	cols := append([]string(nil), dimensionColumns...)
	for _, y := range selectedYears(f) {
		for _, m := range metricPrefixes {
			cols = append(cols, metricColumn(m, y))
		}
	}
	return appendThresholdColumns(cols, f)
}

// appendThresholdColumns adds the metric columns the in-memory
// thresholds read, in case they target years outside the selection.
func appendThresholdColumns(cols []string, f FilterState) []string {
	if t, ok := f.Threshold(keyMinTons); ok {
		cols = appendUnique(cols, metricColumn("tons", t.Year))
	}
	if t, ok := f.Threshold(keyMinValue); ok {
		cols = appendUnique(cols, metricColumn("value", t.Year))
	}
	return cols
}

func appendUnique(cols []string, col string) []string {
	if contains(cols, col) {
		return cols
	}
	return append(cols, col)
}

// applyRowFilters re-checks scan predicates (the cache skips them for
// resident tables) and applies the threshold filters.
func applyRowFilters(rows []map[string]interface{}, preds []reader.Predicate, f FilterState) []map[string]interface{} {
	minTons, hasTons := f.Threshold(keyMinTons)
	minValue, hasValue := f.Threshold(keyMinValue)

	out := rows[:0:0]
	for _, row := range rows {
		if !reader.Match(row, preds) {
			continue
		}
		if hasTons && !meetsThreshold(row, metricColumn("tons", minTons.Year), minTons.Min) {
			continue
		}
		if hasValue && !meetsThreshold(row, metricColumn("value", minValue.Year), minValue.Min) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func meetsThreshold(row map[string]interface{}, col string, min float64) bool {
	v, ok := reader.AsFloat64(row[col])
	return ok && v >= min
}

func (s *flowStrategy) run(q *Query, format Format) (*Result, error) {
	preds, warnings, err := s.pushdown(q)
	if err != nil {
		return nil, err
	}
	rows, err := q.cache.Dataset(s.ds, s.columns(q.filters), preds)
	if err != nil {
		return nil, err
	}
	rows = applyRowFilters(rows, preds, q.filters)

	var cols []string
	if format == FormatLong {
		rows, cols = toLong(rows)
	} else {
		cols = append(idColumns(rows), metricColumns(rows)...)
	}
	return &Result{Rows: rows, Columns: cols, Warnings: warnings}, nil
}

func (s *flowStrategy) estimate(q *Query) (int, error) {
	preds, _, err := s.pushdown(q)
	if err != nil {
		return 0, err
	}
	cols := appendThresholdColumns(append([]string(nil), dimensionColumns...), q.filters)
	rows, err := q.cache.Dataset(s.ds, cols, preds)
	if err != nil {
		return 0, err
	}
	return len(applyRowFilters(rows, preds, q.filters)), nil
}
