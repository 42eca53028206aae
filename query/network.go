package query

import (
	"fmt"
	"strings"

	"github.com/darshanpandit/tidyfaf/reader"
)

// networkColumns is the output order for highway network links.
var networkColumns = []string{
	colRoadName, colSignRoute, colNetState, colNetZone,
	colFuncClass, colNHFN, colNHS, colTruck, colTollType, colLength,
}

// networkStrategy runs queries over the highway network link table.
// The attribute filters are substring and flag matches, so nothing
// pushes down: the table is cached whole and filtered in memory.
type networkStrategy struct{}

// NewNetworkQuery builds a query over highway network links.
func NewNetworkQuery(opts ...Option) Query {
	return newQuery(&networkStrategy{}, opts)
}

func (s *networkStrategy) name() string          { return "network" }
func (s *networkStrategy) defaultFormat() Format { return FormatWide }
func (s *networkStrategy) originColumn() string  { return "" }
func (s *networkStrategy) destColumn() string    { return "" }

func (s *networkStrategy) supports(key string) bool {
	switch key {
	case keyRoutes, keyNetworkStates, keyNetworkZones,
		keyFunctionalClasses, keyNHFN, keyNHS, keyToll, keyTruckAllowed:
		return true
	}
	return false
}

func (s *networkStrategy) run(q *Query, format Format) (*Result, error) {
	if format != FormatWide {
		return nil, fmt.Errorf("%w: network links have no metric-year columns to melt", ErrUnsupported)
	}
	rows, err := s.load(q)
	if err != nil {
		return nil, err
	}
	// Copy the kept rows so the result never aliases the resident
	// table.
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		dup := make(map[string]interface{}, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out[i] = dup
	}
	return &Result{Rows: out, Columns: networkColumns}, nil
}

func (s *networkStrategy) estimate(q *Query) (int, error) {
	rows, err := s.load(q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *networkStrategy) load(q *Query) ([]map[string]interface{}, error) {
	rows, err := q.cache.Raw(reader.Network)
	if err != nil {
		return nil, err
	}
	f := q.filters

	var kept []map[string]interface{}
	for _, row := range rows {
		if !matchNetworkRow(row, f) {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// TotalLength sums link mileage over the filtered network.
func (q Query) TotalLength() (float64, error) {
	res, err := q.Summarize().Get()
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	total, ok := reader.AsFloat64(res.Rows[0][colLength])
	if !ok {
		return 0, fmt.Errorf("%w: %s query result has no %s column", ErrUnsupported, q.strat.name(), colLength)
	}
	return total, nil
}

func matchNetworkRow(row map[string]interface{}, f FilterState) bool {
	if names, ok := f.Names(keyRoutes); ok {
		if !matchAnySubstring(row, names, colSignRoute, colRoadName) {
			return false
		}
	}
	if names, ok := f.Names(keyNetworkStates); ok {
		if !matchAnyExact(row, names, colNetState) {
			return false
		}
	}
	if codes, ok := f.Codes(keyNetworkZones); ok {
		if !reader.Match(row, []reader.Predicate{reader.In(colNetZone, codes...)}) {
			return false
		}
	}
	if names, ok := f.Names(keyFunctionalClasses); ok {
		if !matchAnySubstring(row, names, colFuncClass) {
			return false
		}
	}
	if flag, ok := f.Flag(keyNHFN); ok && flag && !truthy(row[colNHFN]) {
		return false
	}
	if flag, ok := f.Flag(keyNHS); ok && flag && !truthy(row[colNHS]) {
		return false
	}
	if flag, ok := f.Flag(keyToll); ok && flag && !truthy(row[colTollType]) {
		return false
	}
	if flag, ok := f.Flag(keyTruckAllowed); ok && flag && !truthy(row[colTruck]) {
		return false
	}
	return true
}

// matchAnySubstring reports whether any candidate column contains any
// of the wanted substrings, case-insensitively.
func matchAnySubstring(row map[string]interface{}, wanted []string, cols ...string) bool {
	for _, col := range cols {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(s)
		for _, w := range wanted {
			if strings.Contains(lower, strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

func matchAnyExact(row map[string]interface{}, wanted []string, col string) bool {
	s, ok := row[col].(string)
	if !ok {
		return false
	}
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

// truthy interprets link attribute flags, which appear as numeric
// 0/1 markers or designation strings depending on the column.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if n, ok := reader.AsInt64(v); ok {
		return n > 0
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.ToLower(s))
		return s != "" && s != "none" && s != "no" && s != "0" && s != "prohibited"
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
