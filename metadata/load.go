package metadata

import (
	"fmt"

	"github.com/darshanpandit/tidyfaf/reader"
)

// TableLoader loads one reference table by dataset identity. Satisfied
// by *reader.Loader.
type TableLoader interface {
	Load(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error)
}

// Load reads the four reference tables through a loader.
func Load(l TableLoader) (*Metadata, error) {
	states, err := l.Load(reader.RefStates, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading state reference table: %w", err)
	}
	modes, err := l.Load(reader.RefModes, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading mode reference table: %w", err)
	}
	commodities, err := l.Load(reader.RefCommodities, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading commodity reference table: %w", err)
	}
	zones, err := l.Load(reader.RefZones, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("loading zone reference table: %w", err)
	}
	return New(states, modes, commodities, zones), nil
}
