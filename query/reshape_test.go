package query

import (
	"reflect"
	"testing"
)

func wideFixture() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"dms_orig": int64(61), "dms_dest": int64(121), "sctg2": int64(34),
			"tons_2017": float64(90), "tons_2020": float64(100), "value_2020": float64(200),
		},
		{
			"dms_orig": int64(62), "dms_dest": int64(121), "sctg2": int64(35),
			"tons_2017": float64(45), "tons_2020": float64(50), "value_2020": float64(80),
		},
	}
}

func TestToLong(t *testing.T) {
	long, cols := toLong(wideFixture())

	if len(long) != 6 {
		t.Fatalf("toLong() returned %d rows, want 6", len(long))
	}
	want := []string{"dms_orig", "dms_dest", "sctg2", colYear, colMetric, colVal}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("columns = %v, want %v", cols, want)
	}

	// Metric columns come out sorted by metric then year, so the first
	// melted row of the first flow is tons 2017.
	first := long[0]
	if first[colMetric] != "tons" || first[colYear] != int64(2017) || first[colVal] != float64(90) {
		t.Errorf("first long row = %v, want tons/2017/90", first)
	}
}

func TestToLongSkipsMissingValues(t *testing.T) {
	rows := []map[string]interface{}{
		{"dms_orig": int64(61), "tons_2017": float64(90), "tons_2020": nil},
	}
	long, _ := toLong(rows)
	if len(long) != 1 {
		t.Fatalf("toLong() returned %d rows, want 1 (nil metric skipped)", len(long))
	}
}

func TestReshapeRoundTrip(t *testing.T) {
	wide := wideFixture()

	long, _ := toLong(wide)
	back, cols := toWide(long)

	if !reflect.DeepEqual(back, wide) {
		t.Errorf("round trip mismatch:\ngot  %v\nwant %v", back, wide)
	}
	want := []string{"dms_orig", "dms_dest", "sctg2", "tons_2017", "tons_2020", "value_2020"}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("columns = %v, want %v", cols, want)
	}
}

func TestMetricColumnParsing(t *testing.T) {
	tests := []struct {
		col        string
		wantMetric string
		wantYear   int
		wantOK     bool
	}{
		{"tons_2020", "tons", 2020, true},
		{"value_2017", "value", 2017, true},
		{"tmiles_2030", "tmiles", 2030, true},
		{"current_value_2024", "current_value", 2024, true},
		{"tons_2030_high", "", 0, false},
		{"dms_orig", "", 0, false},
		{"tons_20", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			metric, year, ok := parseMetricYear(tt.col)
			if ok != tt.wantOK {
				t.Fatalf("parseMetricYear(%q) ok = %v, want %v", tt.col, ok, tt.wantOK)
			}
			if metric != tt.wantMetric || year != tt.wantYear {
				t.Errorf("parseMetricYear(%q) = %q, %d, want %q, %d", tt.col, metric, year, tt.wantMetric, tt.wantYear)
			}
		})
	}
}
