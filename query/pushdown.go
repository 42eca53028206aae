package query

import (
	"fmt"

	"github.com/darshanpandit/tidyfaf/metadata"
	"github.com/darshanpandit/tidyfaf/reader"
)

// pushdown translates the membership filters of a FilterState into
// reader predicates evaluated during the parquet scan. Thresholds and
// name filters stay in memory; only code-membership filters push down.

// zonePushdown builds predicates for a zone-level flow table. Explicit
// zone filters win; state filters expand to the zones of each state via
// the reference tables.
func zonePushdown(f FilterState, md *metadata.Metadata) ([]reader.Predicate, []string, error) {
	var preds []reader.Predicate
	var warnings []string

	origins, warn, err := zoneCodesFor(f, md, keyOriginZones, keyOriginStates)
	if err != nil {
		return nil, nil, err
	}
	if warn != "" {
		warnings = append(warnings, warn)
	}
	if origins != nil {
		preds = append(preds, reader.In(colOriginZone, origins...))
	}

	dests, warn, err := zoneCodesFor(f, md, keyDestinationZones, keyDestinationStates)
	if err != nil {
		return nil, nil, err
	}
	if warn != "" {
		warnings = append(warnings, warn)
	}
	if dests != nil {
		preds = append(preds, reader.In(colDestZone, dests...))
	}

	return append(preds, commonPushdown(f)...), warnings, nil
}

// statePushdown builds predicates for a state-level flow table.
func statePushdown(f FilterState) ([]reader.Predicate, error) {
	if f.Has(keyOriginZones) || f.Has(keyDestinationZones) {
		return nil, fmt.Errorf("%w: zone filters on state-level data; use a regional query for zone granularity", ErrUnsupported)
	}
	var preds []reader.Predicate
	if codes, ok := f.Codes(keyOriginStates); ok {
		preds = append(preds, reader.In(colOriginState, codes...))
	}
	if codes, ok := f.Codes(keyDestinationStates); ok {
		preds = append(preds, reader.In(colDestState, codes...))
	}
	return append(preds, commonPushdown(f)...), nil
}

// commonPushdown covers the filters shared by every flow table.
func commonPushdown(f FilterState) []reader.Predicate {
	var preds []reader.Predicate
	if codes, ok := f.Codes(keyCommodities); ok {
		preds = append(preds, reader.In(colCommodity, codes...))
	}
	if codes, ok := f.Codes(keyModes); ok {
		preds = append(preds, reader.In(colMode, codes...))
	}
	if codes, ok := f.Codes(keyTradeTypes); ok {
		preds = append(preds, reader.In(colTradeType, codes...))
	}
	if codes, ok := f.Codes(keyDistanceBands); ok {
		preds = append(preds, reader.In(colDistBand, codes...))
	}
	return preds
}

func zoneCodesFor(f FilterState, md *metadata.Metadata, zoneKey, stateKey string) ([]int64, string, error) {
	zones, hasZones := f.Codes(zoneKey)
	states, hasStates := f.Codes(stateKey)
	switch {
	case hasZones && hasStates:
		return zones, fmt.Sprintf("both %s and %s set; the zone filter takes precedence", zoneKey, stateKey), nil
	case hasZones:
		return zones, "", nil
	case hasStates:
		if md == nil {
			return nil, "", fmt.Errorf("%w: state filters on zone-level data need the reference tables loaded", ErrInvalidInput)
		}
		var expanded []int64
		for _, fips := range states {
			expanded = append(expanded, md.ZonesForState(fips)...)
		}
		if len(expanded) == 0 {
			return nil, "", fmt.Errorf("%w: no zones found for states %v", metadata.ErrZoneNotFound, states)
		}
		return expanded, "", nil
	}
	return nil, "", nil
}
