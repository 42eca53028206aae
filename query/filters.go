package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Filter keys. Each key maps to exactly one value in a FilterState.
const (
	keyOriginStates        = "origin_states"
	keyOriginZones         = "origin_zones"
	keyDestinationStates   = "destination_states"
	keyDestinationZones    = "destination_zones"
	keyCommodities         = "commodities"
	keyModes               = "modes"
	keyTradeTypes          = "trade_types"
	keyDistanceBands       = "distance_bands"
	keyYears               = "years"
	keyScenarios           = "scenarios"
	keyMinTons             = "min_tons"
	keyMinValue            = "min_value"
	keyOriginCounties      = "origin_counties"
	keyDestinationCounties = "destination_counties"
	keyRoutes              = "routes"
	keyNetworkStates       = "states"
	keyNetworkZones        = "zones"
	keyFunctionalClasses   = "functional_classes"
	keyNHFN                = "nhfn"
	keyNHS                 = "nhs"
	keyToll                = "toll"
	keyTruckAllowed        = "truck_allowed"
)

// FilterValue is one value in a FilterState: a code list, a threshold,
// a boolean flag, or a string list.
type FilterValue interface {
	// canonical returns a deterministic encoding used for signatures
	// and state comparison.
	canonical() string
}

// Codes is a list of resolved integer codes (zones, states,
// commodities, modes, trade types, counties, years).
type Codes []int64

func (c Codes) canonical() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "c:" + strings.Join(parts, ",")
}

// Threshold is a minimum metric value evaluated against one year's
// column.
type Threshold struct {
	Min  float64
	Year int
}

func (t Threshold) canonical() string {
	return fmt.Sprintf("t:%g:%d", t.Min, t.Year)
}

// Flag is a boolean filter value.
type Flag bool

func (f Flag) canonical() string {
	return "b:" + strconv.FormatBool(bool(f))
}

// Names is a list of string filter values (routes, functional classes,
// scenarios, state abbreviations).
type Names []string

func (n Names) canonical() string {
	return "s:" + strings.Join(n, "|")
}

// FilterState is the accumulated, immutable state of a query: a
// persistent mapping from filter key to value. With returns a new
// state sharing structure with the old one; existing states are never
// modified, so two builder instances can never alias mutable filter
// storage.
type FilterState struct {
	m *immutable.Map[string, FilterValue]
}

// NewFilterState returns an empty filter state.
func NewFilterState() FilterState {
	return FilterState{m: immutable.NewMap[string, FilterValue](nil)}
}

// With returns a new state with key set to value.
func (f FilterState) With(key string, value FilterValue) FilterState {
	if f.m == nil {
		f = NewFilterState()
	}
	return FilterState{m: f.m.Set(key, value)}
}

// Get returns the value for a key.
func (f FilterState) Get(key string) (FilterValue, bool) {
	if f.m == nil {
		return nil, false
	}
	return f.m.Get(key)
}

// Has reports whether a key is set.
func (f FilterState) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Codes returns the code list for a key, if the key holds one.
func (f FilterState) Codes(key string) ([]int64, bool) {
	v, ok := f.Get(key)
	if !ok {
		return nil, false
	}
	c, ok := v.(Codes)
	return c, ok
}

// Threshold returns the threshold for a key, if the key holds one.
func (f FilterState) Threshold(key string) (Threshold, bool) {
	v, ok := f.Get(key)
	if !ok {
		return Threshold{}, false
	}
	t, ok := v.(Threshold)
	return t, ok
}

// Flag returns the boolean for a key, if the key holds one.
func (f FilterState) Flag(key string) (bool, bool) {
	v, ok := f.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(Flag)
	return bool(b), ok
}

// Names returns the string list for a key, if the key holds one.
func (f FilterState) Names(key string) ([]string, bool) {
	v, ok := f.Get(key)
	if !ok {
		return nil, false
	}
	n, ok := v.(Names)
	return n, ok
}

// Len returns the number of filters set.
func (f FilterState) Len() int {
	if f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Keys returns the set filter keys, sorted.
func (f FilterState) Keys() []string {
	if f.m == nil {
		return nil
	}
	keys := make([]string, 0, f.m.Len())
	itr := f.m.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the filter state for diagnostics, truncating long
// code lists.
func (f FilterState) String() string {
	keys := f.Keys()
	if len(keys) == 0 {
		return "(no filters)"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := f.Get(k)
		if codes, ok := v.(Codes); ok && len(codes) > 3 {
			parts = append(parts, fmt.Sprintf("%s=%v...", k, []int64(codes[:3])))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
