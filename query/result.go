package query

import "fmt"

// Format selects the shape of a query result.
type Format string

const (
	// FormatWide keeps one row per flow with a column per metric-year.
	FormatWide Format = "wide"
	// FormatLong melts metric-year columns into year, metric, and
	// value columns.
	FormatLong Format = "long"
)

func validFormat(f Format) error {
	switch f {
	case FormatWide, FormatLong:
		return nil
	}
	return fmt.Errorf("%w: unknown format %q (valid: wide, long)", ErrInvalidInput, f)
}

// Result holds the rows of an executed query. Columns records the
// output column order; Warnings carries non-fatal notes gathered while
// building and running the query.
type Result struct {
	Rows     []map[string]interface{}
	Columns  []string
	Warnings []string
}

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.Rows) }

// clone deep-copies the result so callers and the cache never share
// row maps.
func (r *Result) clone() *Result {
	out := &Result{
		Rows:     make([]map[string]interface{}, len(r.Rows)),
		Columns:  append([]string(nil), r.Columns...),
		Warnings: append([]string(nil), r.Warnings...),
	}
	for i, row := range r.Rows {
		dup := make(map[string]interface{}, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out.Rows[i] = dup
	}
	return out
}
