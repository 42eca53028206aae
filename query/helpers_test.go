package query

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/darshanpandit/tidyfaf/reader"
)

// stubLoader serves fixture tables in place of parquet files,
// honoring the same projection and predicate semantics as the real
// loader and recording every call for pushdown assertions.
type stubLoader struct {
	tables map[reader.Dataset][]map[string]interface{}
	calls  []stubCall
}

type stubCall struct {
	ds         reader.Dataset
	columns    []string
	predicates []reader.Predicate
}

func (s *stubLoader) Load(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error) {
	s.calls = append(s.calls, stubCall{ds: ds, columns: columns, predicates: predicates})
	rows, ok := s.tables[ds]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reader.ErrDatasetNotFound, ds)
	}

	keep := map[string]bool{}
	for _, col := range columns {
		keep[col] = true
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if !reader.Match(row, predicates) {
			continue
		}
		dup := make(map[string]interface{}, len(row))
		for k, v := range row {
			if columns == nil || keep[k] {
				dup[k] = v
			}
		}
		out = append(out, dup)
	}
	return out, nil
}

// loadCount returns how many calls hit a dataset.
func (s *stubLoader) loadCount(ds reader.Dataset) int {
	n := 0
	for _, c := range s.calls {
		if c.ds == ds {
			n++
		}
	}
	return n
}

func refTables() map[reader.Dataset][]map[string]interface{} {
	return map[reader.Dataset][]map[string]interface{}{
		reader.RefStates: {
			{"code": int64(6), "description": "California"},
			{"code": int64(12), "description": "Florida"},
			{"code": int64(48), "description": "Texas"},
		},
		reader.RefModes: {
			{"code": int64(1), "description": "Truck"},
			{"code": int64(2), "description": "Rail"},
			{"code": int64(3), "description": "Water"},
			{"code": int64(6), "description": "Pipeline"},
		},
		reader.RefCommodities: {
			{"code": int64(34), "description": "Machinery"},
			{"code": int64(35), "description": "Electronics"},
		},
		reader.RefZones: {
			{"code": int64(61), "description": "Los Angeles", "long_description": "Los Angeles-Long Beach CA CSA"},
			{"code": int64(62), "description": "Sacramento", "long_description": "Sacramento-Roseville CA CSA"},
			{"code": int64(121), "description": "Miami", "long_description": "Miami-Port St. Lucie FL CSA"},
		},
	}
}

func regionalRows() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"dms_orig": int64(61), "dms_dest": int64(121),
			"dms_origst": int64(6), "dms_destst": int64(12),
			"sctg2": int64(34), "dms_mode": int64(1), "trade_type": int64(1),
			"tons_2020": float64(100), "value_2020": float64(200),
			"tons_2017": float64(90), "value_2017": float64(180),
		},
		{
			"dms_orig": int64(62), "dms_dest": int64(121),
			"dms_origst": int64(6), "dms_destst": int64(12),
			"sctg2": int64(35), "dms_mode": int64(1), "trade_type": int64(1),
			"tons_2020": float64(50), "value_2020": float64(80),
			"tons_2017": float64(45), "value_2017": float64(70),
		},
		{
			"dms_orig": int64(121), "dms_dest": int64(61),
			"dms_origst": int64(12), "dms_destst": int64(6),
			"sctg2": int64(34), "dms_mode": int64(2), "trade_type": int64(1),
			"tons_2020": float64(25), "value_2020": float64(40),
			"tons_2017": float64(20), "value_2017": float64(30),
		},
	}
}

func stateRows() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"dms_origst": int64(6), "dms_destst": int64(12),
			"sctg2": int64(34), "dms_mode": int64(1), "trade_type": int64(1),
			"tons_2020": float64(150), "value_2020": float64(280),
		},
		{
			"dms_origst": int64(12), "dms_destst": int64(6),
			"sctg2": int64(34), "dms_mode": int64(2), "trade_type": int64(1),
			"tons_2020": float64(25), "value_2020": float64(40),
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv builds a cache backed by the stub loader with the
// reference tables and any extra fixture tables installed.
func newTestEnv(t *testing.T, extra map[reader.Dataset][]map[string]interface{}) (*Cache, *stubLoader) {
	t.Helper()

	loader := &stubLoader{tables: refTables()}
	for ds, rows := range extra {
		loader.tables[ds] = rows
	}
	cache := NewCache(WithLoader(loader), WithLogger(quietLogger()))
	return cache, loader
}

func tonsOf(t *testing.T, row map[string]interface{}, col string) float64 {
	t.Helper()
	v, ok := reader.AsFloat64(row[col])
	if !ok {
		t.Fatalf("row has no numeric %q column: %v", col, row)
	}
	return v
}

func totalOf(t *testing.T, rows []map[string]interface{}, col string) float64 {
	t.Helper()
	total := 0.0
	for _, row := range rows {
		if v, ok := reader.AsFloat64(row[col]); ok {
			total += v
		}
	}
	return total
}
