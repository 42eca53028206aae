// Package metadata holds the FAF reference tables (states, modes,
// commodities, zones) and resolves human-readable names to the integer
// codes used by the storage columns.
//
// Each reference table carries an explicit schema descriptor naming its
// code column and name columns, so lookups never guess at headers.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category sentinels for failed lookups. Callers match with errors.Is.
var (
	ErrStateNotFound     = errors.New("state not found")
	ErrModeNotFound      = errors.New("mode not found")
	ErrCommodityNotFound = errors.New("commodity not found")
	ErrZoneNotFound      = errors.New("zone not found")
)

// Schema describes how to read a reference table: which column holds
// the integer code, which columns hold names, and whether name lookups
// use substring matching (zones) or exact matching (everything else).
// Matching is case-insensitive either way.
type Schema struct {
	CodeColumn  string
	NameColumns []string
	Substring   bool
}

// RefTable is one reference table plus its schema descriptor.
type RefTable struct {
	Schema Schema
	Rows   []map[string]interface{}
}

// Lookup resolves a name to its code. notFound is wrapped into the
// returned error so callers can errors.Is against the category.
func (t *RefTable) Lookup(name string, notFound error) (int64, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, row := range t.Rows {
		for _, col := range t.Schema.NameColumns {
			text, ok := row[col].(string)
			if !ok {
				continue
			}
			haystack := strings.ToLower(text)
			if t.Schema.Substring {
				if strings.Contains(haystack, needle) {
					return t.code(row)
				}
			} else if haystack == needle {
				return t.code(row)
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", notFound, name)
}

// HasCode reports whether a code exists in the table.
func (t *RefTable) HasCode(code int64) bool {
	for _, row := range t.Rows {
		if c, err := t.code(row); err == nil && c == code {
			return true
		}
	}
	return false
}

// Codes returns every code in the table, sorted.
func (t *RefTable) Codes() []int64 {
	codes := make([]int64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if c, err := t.code(row); err == nil {
			codes = append(codes, c)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Search returns the rows whose name columns contain the search string,
// case-insensitive. An empty search returns a copy of every row.
func (t *RefTable) Search(search string) []map[string]interface{} {
	needle := strings.ToLower(search)
	out := make([]map[string]interface{}, 0)
	for _, row := range t.Rows {
		if search == "" {
			out = append(out, copyRow(row))
			continue
		}
		for _, col := range t.Schema.NameColumns {
			if text, ok := row[col].(string); ok && strings.Contains(strings.ToLower(text), needle) {
				out = append(out, copyRow(row))
				break
			}
		}
	}
	return out
}

func (t *RefTable) code(row map[string]interface{}) (int64, error) {
	switch v := row[t.Schema.CodeColumn].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("reference row has no integer %q column", t.Schema.CodeColumn)
	}
}

// Metadata bundles the four FAF reference tables.
type Metadata struct {
	States      RefTable
	Modes       RefTable
	Commodities RefTable
	Zones       RefTable
}

// New builds a Metadata from raw reference rows using the standard FAF
// schema descriptors: states/modes/commodities keyed by "code" with a
// "description" name column (exact match), zones keyed by "code" with
// "description" and "long_description" (substring match).
func New(states, modes, commodities, zones []map[string]interface{}) *Metadata {
	exact := func(rows []map[string]interface{}) RefTable {
		return RefTable{
			Schema: Schema{CodeColumn: "code", NameColumns: []string{"description"}},
			Rows:   rows,
		}
	}
	return &Metadata{
		States:      exact(states),
		Modes:       exact(modes),
		Commodities: exact(commodities),
		Zones: RefTable{
			Schema: Schema{
				CodeColumn:  "code",
				NameColumns: []string{"description", "long_description"},
				Substring:   true,
			},
			Rows: zones,
		},
	}
}

// LookupState resolves a state name to its FIPS code. Exact match,
// case-insensitive.
func (m *Metadata) LookupState(name string) (int64, error) {
	return m.States.Lookup(name, ErrStateNotFound)
}

// LookupMode resolves a mode name to its code.
func (m *Metadata) LookupMode(name string) (int64, error) {
	return m.Modes.Lookup(name, ErrModeNotFound)
}

// LookupCommodity resolves a commodity name to its SCTG2 code.
func (m *Metadata) LookupCommodity(name string) (int64, error) {
	return m.Commodities.Lookup(name, ErrCommodityNotFound)
}

// LookupZone resolves a zone description to its FAF zone code.
// Substring match, case-insensitive; the first match wins in table
// order.
func (m *Metadata) LookupZone(name string) (int64, error) {
	return m.Zones.Lookup(name, ErrZoneNotFound)
}

// HasState reports whether a FIPS code exists in the state table.
func (m *Metadata) HasState(code int64) bool { return m.States.HasCode(code) }

// HasZone reports whether a code exists in the zone table.
func (m *Metadata) HasZone(code int64) bool { return m.Zones.HasCode(code) }

// ZonesForState returns every FAF zone belonging to a state. Zone codes
// encode their state as code/10 == FIPS, so expansion is arithmetic
// over the zone table.
func (m *Metadata) ZonesForState(fips int64) []int64 {
	var zones []int64
	for _, code := range m.Zones.Codes() {
		if code/10 == fips {
			zones = append(zones, code)
		}
	}
	return zones
}

// SearchStates returns the state reference rows matching a search
// string, or all of them when the search is empty.
func (m *Metadata) SearchStates(search string) []map[string]interface{} {
	return m.States.Search(search)
}

// SearchZones returns the matching zone reference rows.
func (m *Metadata) SearchZones(search string) []map[string]interface{} {
	return m.Zones.Search(search)
}

// SearchCommodities returns the matching commodity reference rows.
func (m *Metadata) SearchCommodities(search string) []map[string]interface{} {
	return m.Commodities.Search(search)
}

// AvailableModes returns every mode reference row.
func (m *Metadata) AvailableModes() []map[string]interface{} {
	return m.Modes.Search("")
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
