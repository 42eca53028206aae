package query

import (
	"errors"
	"testing"

	"github.com/darshanpandit/tidyfaf/reader"
)

func TestRawCachesDataset(t *testing.T) {
	cache, loader := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.Regional: regionalRows(),
	})

	first, err := cache.Raw(reader.Regional)
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	second, err := cache.Raw(reader.Regional)
	if err != nil {
		t.Fatalf("Raw() second call error = %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("Raw() returned %d and %d rows, want 3 and 3", len(first), len(second))
	}
	if loader.loadCount(reader.Regional) != 1 {
		t.Errorf("loader hit %d times, want 1", loader.loadCount(reader.Regional))
	}
}

func TestRawMissingDataset(t *testing.T) {
	cache, _ := newTestEnv(t, nil)

	_, err := cache.Raw(reader.Regional)
	if !errors.Is(err, reader.ErrDatasetNotFound) {
		t.Fatalf("Raw() error = %v, want ErrDatasetNotFound", err)
	}
}

func TestDatasetPushesDownWhenAbsent(t *testing.T) {
	cache, loader := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.Regional: regionalRows(),
	})

	preds := []reader.Predicate{reader.In("dms_dest", 121)}
	rows, err := cache.Dataset(reader.Regional, []string{"dms_orig", "tons_2020"}, preds)
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Dataset() returned %d rows, want 2", len(rows))
	}

	call := loader.calls[len(loader.calls)-1]
	if len(call.predicates) != 1 || call.predicates[0].Column != "dms_dest" {
		t.Errorf("loader call predicates = %v, want dms_dest membership", call.predicates)
	}
	if len(call.columns) != 2 {
		t.Errorf("loader call columns = %v, want 2 columns", call.columns)
	}
}

func TestDatasetProjectsResidentTable(t *testing.T) {
	cache, loader := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.Regional: regionalRows(),
	})
	if err := cache.Preload(reader.Regional); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	// Resident path serves from memory; predicates stay with the
	// caller.
	rows, err := cache.Dataset(reader.Regional, []string{"dms_orig"}, []reader.Predicate{reader.In("dms_dest", 121)})
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Dataset() returned %d rows, want all 3 resident rows", len(rows))
	}
	for _, row := range rows {
		if len(row) != 1 {
			t.Errorf("projected row has %d columns, want 1: %v", len(row), row)
		}
	}
	if loader.loadCount(reader.Regional) != 1 {
		t.Errorf("loader hit %d times, want 1 (preload only)", loader.loadCount(reader.Regional))
	}
}

func testResult(tons float64) *Result {
	return &Result{
		Rows:    []map[string]interface{}{{"dms_orig": int64(61), "tons_2020": tons}},
		Columns: []string{"dms_orig", "tons_2020"},
	}
}

func TestResultCopySemantics(t *testing.T) {
	cache, _ := newTestEnv(t, nil)

	res := testResult(100)
	cache.PutResult("sig", res)

	// Mutating the stored-from value must not reach the cache.
	res.Rows[0]["tons_2020"] = float64(-1)

	got, ok := cache.GetResult("sig")
	if !ok {
		t.Fatal("GetResult() miss, want hit")
	}
	if got.Rows[0]["tons_2020"] != float64(100) {
		t.Errorf("cached tons = %v, want 100", got.Rows[0]["tons_2020"])
	}

	// And mutating a retrieved copy must not reach later readers.
	got.Rows[0]["tons_2020"] = float64(-2)
	again, _ := cache.GetResult("sig")
	if again.Rows[0]["tons_2020"] != float64(100) {
		t.Errorf("cached tons after reader mutation = %v, want 100", again.Rows[0]["tons_2020"])
	}
}

func TestResultLRUEviction(t *testing.T) {
	loader := &stubLoader{tables: refTables()}
	cache := NewCache(WithLoader(loader), WithLogger(quietLogger()), WithMaxResults(2))

	cache.PutResult("a", testResult(1))
	cache.PutResult("b", testResult(2))

	// Touch a so b becomes least recently used.
	if _, ok := cache.GetResult("a"); !ok {
		t.Fatal("GetResult(a) miss, want hit")
	}

	cache.PutResult("c", testResult(3))

	if _, ok := cache.GetResult("b"); ok {
		t.Error("GetResult(b) hit, want evicted")
	}
	if _, ok := cache.GetResult("a"); !ok {
		t.Error("GetResult(a) miss, want retained")
	}
	if _, ok := cache.GetResult("c"); !ok {
		t.Error("GetResult(c) miss, want retained")
	}
	if n := cache.ResultCount(); n != 2 {
		t.Errorf("ResultCount() = %d, want 2", n)
	}
}

func TestClear(t *testing.T) {
	cache, loader := newTestEnv(t, map[reader.Dataset][]map[string]interface{}{
		reader.Regional: regionalRows(),
	})
	if err := cache.Preload(reader.Regional); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	cache.PutResult("sig", testResult(1))

	cache.Clear()
	if _, ok := cache.GetResult("sig"); ok {
		t.Error("GetResult after Clear hit, want miss")
	}
	if _, err := cache.Raw(reader.Regional); err != nil {
		t.Fatalf("Raw after Clear error = %v", err)
	}
	if loader.loadCount(reader.Regional) != 1 {
		t.Errorf("Clear dropped the dataset store: loader hit %d times, want 1", loader.loadCount(reader.Regional))
	}

	cache.ClearAll()
	if _, err := cache.Raw(reader.Regional); err != nil {
		t.Fatalf("Raw after ClearAll error = %v", err)
	}
	if loader.loadCount(reader.Regional) != 2 {
		t.Errorf("ClearAll kept the dataset store: loader hit %d times, want 2", loader.loadCount(reader.Regional))
	}

	// Clearing twice is safe.
	cache.ClearAll()
	cache.ClearAll()
}
