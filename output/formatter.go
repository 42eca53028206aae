// Package output provides formatters for writing query results to
// various output formats.
//
// Supported formats:
//   - JSON Lines: One JSON object per line
//   - CSV: Comma-separated values with header row
//   - Table: Aligned text table for terminals
//
// Example usage:
//
//	formatter := output.NewCSVFormatter(os.Stdout)
//	if err := formatter.Format(res); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"io"
	"sort"

	"github.com/darshanpandit/tidyfaf/query"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes a result in the formatter's specific format
	Format(res *query.Result) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// columnsOf returns the result's column order, falling back to the
// sorted union of row keys when the result carries none.
func columnsOf(res *query.Result) []string {
	if len(res.Columns) > 0 {
		return res.Columns
	}
	seen := make(map[string]bool)
	for _, row := range res.Rows {
		for col := range row {
			seen[col] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
