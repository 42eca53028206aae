package query

import (
	"sort"

	"github.com/darshanpandit/tidyfaf/reader"
)

// reshape.go converts between the wide layout of the published files
// (one column per metric-year) and a long layout with year, metric,
// and value columns.

// idColumns returns the identifier columns present in rows, in
// canonical order.
func idColumns(rows []map[string]interface{}) []string {
	if len(rows) == 0 {
		return nil
	}
	var cols []string
	for _, c := range dimensionColumns {
		if _, ok := rows[0][c]; ok {
			cols = append(cols, c)
		}
	}
	for _, c := range []string{colOriginCounty, colDestCounty, colSCTGGroup, colScenario} {
		if _, ok := rows[0][c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// metricColumns returns the metric-year columns present in rows,
// sorted by metric then year.
func metricColumns(rows []map[string]interface{}) []string {
	if len(rows) == 0 {
		return nil
	}
	var cols []string
	for c := range rows[0] {
		if _, _, ok := parseMetricYear(c); ok {
			cols = append(cols, c)
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		mi, yi, _ := parseMetricYear(cols[i])
		mj, yj, _ := parseMetricYear(cols[j])
		if mi != mj {
			return mi < mj
		}
		return yi < yj
	})
	return cols
}

// toLong melts metric-year columns into one row per metric per year.
// Rows with no metric value for a given column are skipped rather than
// emitted with a nil value.
func toLong(rows []map[string]interface{}) ([]map[string]interface{}, []string) {
	ids := idColumns(rows)
	metrics := metricColumns(rows)

	out := make([]map[string]interface{}, 0, len(rows)*len(metrics))
	for _, row := range rows {
		for _, mc := range metrics {
			v, ok := row[mc]
			if !ok || v == nil {
				continue
			}
			metric, year, _ := parseMetricYear(mc)
			long := make(map[string]interface{}, len(ids)+3)
			for _, c := range ids {
				long[c] = row[c]
			}
			long[colYear] = int64(year)
			long[colMetric] = metric
			if f, ok := reader.AsFloat64(v); ok {
				long[colVal] = f
			} else {
				long[colVal] = v
			}
			out = append(out, long)
		}
	}

	cols := append(append([]string(nil), ids...), colYear, colMetric, colVal)
	return out, cols
}

// toWide pivots long rows back into one row per flow with a column per
// metric-year. The inverse of toLong for rows that round-trip.
func toWide(rows []map[string]interface{}) ([]map[string]interface{}, []string) {
	ids := idColumns(rows)

	wide := make(map[string]map[string]interface{})
	var order []string
	metricSeen := make(map[string]bool)
	for _, row := range rows {
		key := groupKey(row, ids)
		w, ok := wide[key]
		if !ok {
			w = make(map[string]interface{}, len(ids)+4)
			for _, c := range ids {
				w[c] = row[c]
			}
			wide[key] = w
			order = append(order, key)
		}
		metric, _ := row[colMetric].(string)
		year, ok := reader.AsInt64(row[colYear])
		if metric == "" || !ok {
			continue
		}
		mc := metricColumn(metric, int(year))
		w[mc] = row[colVal]
		metricSeen[mc] = true
	}

	var metrics []string
	for mc := range metricSeen {
		metrics = append(metrics, mc)
	}
	sort.Slice(metrics, func(i, j int) bool {
		mi, yi, _ := parseMetricYear(metrics[i])
		mj, yj, _ := parseMetricYear(metrics[j])
		if mi != mj {
			return mi < mj
		}
		return yi < yj
	})

	out := make([]map[string]interface{}, 0, len(order))
	for _, key := range order {
		out = append(out, wide[key])
	}
	return out, append(append([]string(nil), ids...), metrics...)
}
