package query

import (
	"fmt"

	"github.com/darshanpandit/tidyfaf/reader"
)

// Forecast scenarios. The forecast files carry the base projection in
// plain metric columns and the high and low growth cases in
// scenario-suffixed columns.
const (
	ScenarioBase = "base"
	ScenarioHigh = "high"
	ScenarioLow  = "low"
)

// forecastStrategy runs queries over the high/low forecast tables. It
// reuses the flow pipeline for pushdown and loading, then splits each
// row into one row per scenario with the scenario stamped in its own
// column and the metrics under their base names.
type forecastStrategy struct {
	flowStrategy
}

// NewForecastQuery builds a query over zone-to-zone forecast flows.
// Results default to long format with a scenario column.
func NewForecastQuery(opts ...Option) Query {
	return newQuery(&forecastStrategy{flowStrategy{
		variant:   "forecast",
		ds:        reader.HiLoForecast,
		zoneLevel: true,
		defFormat: FormatLong,
		originCol: colOriginZone,
		destCol:   colDestZone,
		keys:      flowKeys(append(zoneGeographyKeys(), keyScenarios)...),
	}}, opts)
}

// NewStateForecastQuery builds a query over state-to-state forecast
// flows.
func NewStateForecastQuery(opts ...Option) Query {
	return newQuery(&forecastStrategy{flowStrategy{
		variant:   "state_forecast",
		ds:        reader.StateHiLoForecast,
		zoneLevel: false,
		defFormat: FormatLong,
		originCol: colOriginState,
		destCol:   colDestState,
		keys:      flowKeys(append(stateGeographyKeys(), keyScenarios)...),
	}}, opts)
}

func (s *forecastStrategy) scenarios(f FilterState) []string {
	if names, ok := f.Names(keyScenarios); ok {
		return names
	}
	return []string{ScenarioBase, ScenarioHigh, ScenarioLow}
}

// forecastYearsFor returns the year filter or the full forecast range.
func forecastYearsFor(f FilterState) []int {
	codes, ok := f.Codes(keyYears)
	if !ok {
		return ForecastYears()
	}
	years := make([]int, len(codes))
	for i, c := range codes {
		years[i] = int(c)
	}
	return years
}

// columns projects the dimensions plus, for each selected year and
// scenario, the scenario's source column.
func (s *forecastStrategy) columns(f FilterState) []string {
	cols := append([]string(nil), dimensionColumns...)
	for _, y := range forecastYearsFor(f) {
		for _, m := range metricPrefixes {
			for _, sc := range s.scenarios(f) {
				cols = appendUnique(cols, scenarioColumn(m, y, sc))
			}
		}
	}
	return appendThresholdColumns(cols, f)
}

// split fans each row out into one row per scenario, moving the
// scenario's source columns under the base metric names. Rows for a
// scenario with no values present are dropped.
func (s *forecastStrategy) split(rows []map[string]interface{}, f FilterState) []map[string]interface{} {
	years := forecastYearsFor(f)
	out := make([]map[string]interface{}, 0, len(rows)*len(s.scenarios(f)))
	for _, row := range rows {
		for _, sc := range s.scenarios(f) {
			dup := make(map[string]interface{}, len(row)+1)
			for _, c := range dimensionColumns {
				if v, ok := row[c]; ok {
					dup[c] = v
				}
			}
			dup[colScenario] = sc
			found := false
			for _, y := range years {
				for _, m := range metricPrefixes {
					if v, ok := row[scenarioColumn(m, y, sc)]; ok && v != nil {
						dup[metricColumn(m, y)] = v
						found = true
					}
				}
			}
			if found {
				out = append(out, dup)
			}
		}
	}
	return out
}

// CompareScenarios executes the query for one forecast year and pivots
// the scenarios side by side: one row per flow and metric, one column
// per scenario.
func (q Query) CompareScenarios(year int) (*Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	if _, ok := q.strat.(*forecastStrategy); !ok {
		return nil, fmt.Errorf("%w: %s query has no scenarios to compare", ErrUnsupported, q.strat.name())
	}
	if !IsForecastYear(year) {
		return nil, fmt.Errorf("%w: %d is not a forecast year", ErrInvalidInput, year)
	}
	res, err := q.Years(year).GetFormat(FormatLong)
	if err != nil {
		return nil, err
	}

	var ids []string
	if len(res.Rows) > 0 {
		for _, c := range res.Columns {
			if c == colScenario || c == colYear || c == colVal {
				continue
			}
			ids = append(ids, c)
		}
	}

	pivoted := make(map[string]map[string]interface{})
	var order []string
	scenarios := []string{ScenarioBase, ScenarioHigh, ScenarioLow}
	for _, row := range res.Rows {
		key := groupKey(row, ids)
		p, ok := pivoted[key]
		if !ok {
			p = make(map[string]interface{}, len(ids)+len(scenarios))
			for _, c := range ids {
				p[c] = row[c]
			}
			pivoted[key] = p
			order = append(order, key)
		}
		if sc, ok := row[colScenario].(string); ok {
			p[sc] = row[colVal]
		}
	}

	out := &Result{
		Columns:  append(append([]string(nil), ids...), scenarios...),
		Warnings: res.Warnings,
	}
	for _, key := range order {
		out.Rows = append(out.Rows, pivoted[key])
	}
	return out, nil
}

func (s *forecastStrategy) run(q *Query, format Format) (*Result, error) {
	preds, warnings, err := s.pushdown(q)
	if err != nil {
		return nil, err
	}
	rows, err := q.cache.Dataset(s.ds, s.columns(q.filters), preds)
	if err != nil {
		return nil, err
	}
	rows = applyRowFilters(rows, preds, q.filters)
	rows = s.split(rows, q.filters)

	var cols []string
	if format == FormatLong {
		rows, cols = toLong(rows)
	} else {
		cols = append(idColumns(rows), metricColumns(rows)...)
	}
	return &Result{Rows: rows, Columns: cols, Warnings: warnings}, nil
}
