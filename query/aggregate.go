package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/darshanpandit/tidyfaf/reader"
)

// groupSum aggregates rows over the grouping columns, summing every
// metric column. Long-format results keep their year, metric, and
// scenario columns as implicit group keys so totals never mix metrics.
func groupSum(res *Result, groupBy []string) *Result {
	keyCols := append([]string(nil), groupBy...)
	for _, c := range []string{colYear, colMetric, colScenario} {
		if hasColumn(res, c) && !contains(keyCols, c) {
			keyCols = append(keyCols, c)
		}
	}
	sumCols := summableColumns(res)

	groups := make(map[string]map[string]interface{})
	var order []string
	for _, row := range res.Rows {
		key := groupKey(row, keyCols)
		g, ok := groups[key]
		if !ok {
			g = make(map[string]interface{}, len(keyCols)+len(sumCols))
			for _, c := range keyCols {
				g[c] = row[c]
			}
			for _, c := range sumCols {
				g[c] = float64(0)
			}
			groups[key] = g
			order = append(order, key)
		}
		for _, c := range sumCols {
			if v, ok := reader.AsFloat64(row[c]); ok {
				g[c] = g[c].(float64) + v
			}
		}
	}

	out := &Result{
		Columns:  append(append([]string(nil), keyCols...), sumCols...),
		Warnings: res.Warnings,
	}
	sort.Strings(order)
	for _, key := range order {
		out.Rows = append(out.Rows, groups[key])
	}
	return out
}

// groupKey builds a composite key from the group column values.
func groupKey(row map[string]interface{}, cols []string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		fmt.Fprintf(&b, "%v", row[c])
	}
	return b.String()
}

// summableColumns picks the metric columns of a result in column
// order.
func summableColumns(res *Result) []string {
	var cols []string
	for _, c := range res.Columns {
		if isMetricColumn(c) || c == colVal || c == colLength {
			cols = append(cols, c)
		}
	}
	return cols
}

func hasColumn(res *Result, col string) bool {
	return contains(res.Columns, col)
}

func contains(cols []string, col string) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}
