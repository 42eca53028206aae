package metadata

import (
	"fmt"
	"strings"
	"testing"

	"github.com/darshanpandit/tidyfaf/reader"
)

type fakeTableLoader struct {
	tables map[reader.Dataset][]map[string]interface{}
}

func (f fakeTableLoader) Load(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error) {
	rows, ok := f.tables[ds]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reader.ErrDatasetNotFound, ds)
	}
	return rows, nil
}

func TestLoad(t *testing.T) {
	loader := fakeTableLoader{tables: map[reader.Dataset][]map[string]interface{}{
		reader.RefStates:      {{"code": int64(6), "description": "California"}},
		reader.RefModes:       {{"code": int64(1), "description": "Truck"}},
		reader.RefCommodities: {{"code": int64(34), "description": "Machinery"}},
		reader.RefZones:       {{"code": int64(61), "description": "Los Angeles"}},
	}}

	md, err := Load(loader)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if code, err := md.LookupState("California"); err != nil || code != 6 {
		t.Errorf("LookupState = %d, %v, want 6, nil", code, err)
	}
	if !md.HasZone(61) {
		t.Error("HasZone(61) = false, want true")
	}
}

func TestLoadMissingTable(t *testing.T) {
	loader := fakeTableLoader{tables: map[reader.Dataset][]map[string]interface{}{
		reader.RefStates: {{"code": int64(6), "description": "California"}},
	}}

	_, err := Load(loader)
	if err == nil {
		t.Fatal("Load() error = nil, want missing-table error")
	}
	if !strings.Contains(err.Error(), "mode") {
		t.Errorf("Load() error = %v, want mention of the mode table", err)
	}
}
