package query

import (
	"fmt"
	"sort"

	"github.com/darshanpandit/tidyfaf/metadata"
	"github.com/darshanpandit/tidyfaf/reader"
)

// strategy is the variant-specific part of a query: which dataset it
// reads, which filters it accepts, and how rows are loaded and shaped.
type strategy interface {
	name() string
	defaultFormat() Format
	supports(key string) bool
	originColumn() string
	destColumn() string
	run(q *Query, format Format) (*Result, error)
	estimate(q *Query) (int, error)
}

// Query is an immutable, chainable query builder. Every filter method
// returns a new Query; the receiver is never modified, so partial
// queries can be shared and extended independently. Construction does
// no flow-data I/O: filters are validated as they are added, recorded
// errors surface at the terminal call, and data loads only on Get.
type Query struct {
	strat    strategy
	cache    *Cache
	md       *metadata.Metadata
	filters  FilterState
	warnings []string
	groupBy  []string
	grouped  bool
	topN     int
	topBy    string
	err      error
}

// Option configures a query at construction.
type Option func(*Query)

// WithCache runs the query against a specific cache instead of the
// process-wide default.
func WithCache(c *Cache) Option {
	return func(q *Query) { q.cache = c }
}

// WithMetadata supplies pre-loaded reference tables, skipping the lazy
// load on first name resolution.
func WithMetadata(md *metadata.Metadata) Option {
	return func(q *Query) { q.md = md }
}

func newQuery(strat strategy, opts []Option) Query {
	q := Query{strat: strat, filters: NewFilterState()}
	for _, opt := range opts {
		opt(&q)
	}
	if q.cache == nil {
		q.cache = DefaultCache()
	}
	return q
}

// cacheTableLoader adapts a Cache to the metadata loader interface.
// Reference tables go through Raw so they stay resident across
// queries.
type cacheTableLoader struct{ c *Cache }

func (l cacheTableLoader) Load(ds reader.Dataset, columns []string, predicates []reader.Predicate) ([]map[string]interface{}, error) {
	if columns == nil && predicates == nil {
		return l.c.Raw(ds)
	}
	return l.c.Dataset(ds, columns, predicates)
}

// metadata returns the reference tables, loading them through the
// cache on first use.
func (q *Query) metadata() (*metadata.Metadata, error) {
	if q.md != nil {
		return q.md, nil
	}
	md, err := metadata.Load(cacheTableLoader{q.cache})
	if err != nil {
		return nil, err
	}
	q.md = md
	return md, nil
}

// fail records the first error; later filter calls on a failed query
// are no-ops.
func (q Query) fail(err error) Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

func (q Query) warn(warnings ...string) Query {
	if len(warnings) > 0 {
		q.warnings = append(append([]string(nil), q.warnings...), warnings...)
	}
	return q
}

func (q Query) withFilter(key string, v FilterValue) Query {
	if q.err != nil {
		return q
	}
	if !q.strat.supports(key) {
		return q.fail(fmt.Errorf("%w: %s query does not accept a %s filter", ErrUnsupported, q.strat.name(), key))
	}
	q.filters = q.filters.With(key, v)
	return q
}

func (q Query) withCodes(key string, codes []int64) Query {
	return q.withFilter(key, Codes(codes))
}

// needsMetadata reports whether any input is a name rather than a code.
func needsMetadata(values []interface{}) bool {
	for _, v := range values {
		if _, ok := reader.AsInt64(v); !ok {
			return true
		}
	}
	return false
}

func (q Query) geography(values []interface{}, level Level, stateKey, zoneKey string) Query {
	if q.err != nil {
		return q
	}
	md := q.md
	if md == nil && (level == LevelAuto || needsMetadata(values)) {
		loaded, err := q.metadata()
		if err != nil {
			// Codes can still classify by the size heuristic; names
			// cannot resolve at all.
			if needsMetadata(values) {
				return q.fail(err)
			}
		} else {
			md = loaded
		}
	}
	codes, detected, warnings, err := ResolveGeography(md, values, level)
	if err != nil {
		return q.fail(err)
	}
	q = q.warn(warnings...)
	if detected == LevelZone {
		return q.withCodes(zoneKey, codes)
	}
	return q.withCodes(stateKey, codes)
}

// Origins filters flows by origin geography. Inputs may mix names and
// numeric codes; granularity is detected per value, so "California"
// filters by state while 61 filters by zone.
func (q Query) Origins(values ...interface{}) Query {
	return q.geography(values, LevelAuto, keyOriginStates, keyOriginZones)
}

// Destinations filters flows by destination geography.
func (q Query) Destinations(values ...interface{}) Query {
	return q.geography(values, LevelAuto, keyDestinationStates, keyDestinationZones)
}

// OriginStates filters by origin state regardless of how the inputs
// would auto-detect.
func (q Query) OriginStates(values ...interface{}) Query {
	return q.geography(values, LevelState, keyOriginStates, keyOriginZones)
}

// OriginZones filters by origin FAF zone.
func (q Query) OriginZones(values ...interface{}) Query {
	return q.geography(values, LevelZone, keyOriginStates, keyOriginZones)
}

// DestinationStates filters by destination state.
func (q Query) DestinationStates(values ...interface{}) Query {
	return q.geography(values, LevelState, keyDestinationStates, keyDestinationZones)
}

// DestinationZones filters by destination FAF zone.
func (q Query) DestinationZones(values ...interface{}) Query {
	return q.geography(values, LevelZone, keyDestinationStates, keyDestinationZones)
}

func (q Query) resolved(key string, values []interface{}, resolve func(*metadata.Metadata, []interface{}) ([]int64, error)) Query {
	if q.err != nil {
		return q
	}
	md := q.md
	if md == nil && needsMetadata(values) {
		loaded, err := q.metadata()
		if err != nil {
			return q.fail(err)
		}
		md = loaded
	}
	codes, err := resolve(md, values)
	if err != nil {
		return q.fail(err)
	}
	return q.withCodes(key, codes)
}

// Commodities filters by SCTG2 commodity, by code or name.
func (q Query) Commodities(values ...interface{}) Query {
	return q.resolved(keyCommodities, values, ResolveCommodities)
}

// Modes filters by transport mode, by code or name.
func (q Query) Modes(values ...interface{}) Query {
	return q.resolved(keyModes, values, ResolveModes)
}

// TradeTypes filters by trade type: Domestic, Import, or Export.
func (q Query) TradeTypes(values ...interface{}) Query {
	return q.resolved(keyTradeTypes, values, func(_ *metadata.Metadata, vs []interface{}) ([]int64, error) {
		return ResolveTradeTypes(vs)
	})
}

// DistanceBands filters by distance band code.
func (q Query) DistanceBands(codes ...int64) Query {
	return q.withCodes(keyDistanceBands, codes)
}

// Years restricts the metric columns returned to the given years.
func (q Query) Years(years ...int) Query {
	if q.err != nil {
		return q
	}
	valid, err := ValidateYears(years)
	if err != nil {
		return q.fail(err)
	}
	codes := make([]int64, len(valid))
	for i, y := range valid {
		codes[i] = int64(y)
	}
	return q.withCodes(keyYears, codes)
}

// YearRange restricts metrics to the valid years between start and end
// inclusive, spanning the gap between the last actual year and the
// first forecast interval.
func (q Query) YearRange(start, end int) Query {
	if q.err != nil {
		return q
	}
	var years []int
	for y := start; y <= end; y++ {
		if IsValidYear(y) {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return q.fail(fmt.Errorf("%w: no valid years in range %d-%d", ErrInvalidInput, start, end))
	}
	return q.Years(years...)
}

// Scenarios restricts a forecast query to the given scenarios: base,
// high, or low.
func (q Query) Scenarios(scenarios ...string) Query {
	if q.err != nil {
		return q
	}
	for _, s := range scenarios {
		if s != ScenarioBase && s != ScenarioHigh && s != ScenarioLow {
			return q.fail(fmt.Errorf("%w: unknown scenario %q (valid: %s, %s, %s)",
				ErrInvalidInput, s, ScenarioBase, ScenarioHigh, ScenarioLow))
		}
	}
	return q.withFilter(keyScenarios, Names(scenarios))
}

// MinTons keeps rows whose tonnage in the given year meets the
// threshold. Applied in memory after the scan.
func (q Query) MinTons(min float64, year int) Query {
	if q.err == nil && !IsValidYear(year) {
		return q.fail(fmt.Errorf("%w: invalid threshold year %d", ErrInvalidInput, year))
	}
	return q.withFilter(keyMinTons, Threshold{Min: min, Year: year})
}

// MinValue keeps rows whose value in the given year meets the
// threshold.
func (q Query) MinValue(min float64, year int) Query {
	if q.err == nil && !IsValidYear(year) {
		return q.fail(fmt.Errorf("%w: invalid threshold year %d", ErrInvalidInput, year))
	}
	return q.withFilter(keyMinValue, Threshold{Min: min, Year: year})
}

// OriginCounties filters disaggregated flows by origin county FIPS.
func (q Query) OriginCounties(codes ...int64) Query {
	return q.withCodes(keyOriginCounties, codes)
}

// DestinationCounties filters disaggregated flows by destination
// county FIPS.
func (q Query) DestinationCounties(codes ...int64) Query {
	return q.withCodes(keyDestinationCounties, codes)
}

// Routes filters network links by signed route or road name substring.
func (q Query) Routes(names ...string) Query {
	return q.withFilter(keyRoutes, Names(names))
}

// States filters network links by state postal code.
func (q Query) States(abbrevs ...string) Query {
	return q.withFilter(keyNetworkStates, Names(abbrevs))
}

// Zones filters network links by FAF zone.
func (q Query) Zones(codes ...int64) Query {
	return q.withCodes(keyNetworkZones, codes)
}

// FunctionalClasses filters network links by functional class
// description substring.
func (q Query) FunctionalClasses(names ...string) Query {
	return q.withFilter(keyFunctionalClasses, Names(names))
}

// NHFNOnly keeps links on the National Highway Freight Network.
func (q Query) NHFNOnly() Query { return q.withFilter(keyNHFN, Flag(true)) }

// NHSOnly keeps links on the National Highway System.
func (q Query) NHSOnly() Query { return q.withFilter(keyNHS, Flag(true)) }

// TollOnly keeps tolled links.
func (q Query) TollOnly() Query { return q.withFilter(keyToll, Flag(true)) }

// TruckAllowed keeps links open to trucks.
func (q Query) TruckAllowed() Query { return q.withFilter(keyTruckAllowed, Flag(true)) }

// GroupBy aggregates the result over the given columns, summing metric
// columns.
func (q Query) GroupBy(columns ...string) Query {
	if q.err != nil {
		return q
	}
	q.grouped = true
	q.groupBy = append([]string(nil), columns...)
	return q
}

// ByOrigin aggregates flows by their origin column.
func (q Query) ByOrigin() Query {
	if q.err != nil {
		return q
	}
	col := q.strat.originColumn()
	if col == "" {
		return q.fail(fmt.Errorf("%w: %s query has no origin dimension", ErrUnsupported, q.strat.name()))
	}
	return q.GroupBy(col)
}

// ByDestination aggregates flows by their destination column.
func (q Query) ByDestination() Query {
	if q.err != nil {
		return q
	}
	col := q.strat.destColumn()
	if col == "" {
		return q.fail(fmt.Errorf("%w: %s query has no destination dimension", ErrUnsupported, q.strat.name()))
	}
	return q.GroupBy(col)
}

// ByState aggregates network links by state.
func (q Query) ByState() Query { return q.GroupBy(colNetState) }

// ByZone aggregates network links by FAF zone.
func (q Query) ByZone() Query { return q.GroupBy(colNetZone) }

// ByFunctionalClass aggregates network links by functional class.
func (q Query) ByFunctionalClass() Query { return q.GroupBy(colFuncClass) }

// ByCommodity aggregates flows by commodity.
func (q Query) ByCommodity() Query { return q.GroupBy(colCommodity) }

// ByMode aggregates flows by mode.
func (q Query) ByMode() Query { return q.GroupBy(colMode) }

// Summarize collapses the result to a single row of metric totals.
func (q Query) Summarize() Query { return q.GroupBy() }

// Top keeps the n rows with the largest values in the given column,
// after any grouping.
func (q Query) Top(n int, by string) Query {
	if q.err != nil {
		return q
	}
	if n <= 0 {
		return q.fail(fmt.Errorf("%w: top n must be positive, got %d", ErrInvalidInput, n))
	}
	q.topN = n
	q.topBy = by
	return q
}

// Validate reports any error recorded while building the query,
// without loading data.
func (q Query) Validate() error { return q.err }

// Warnings returns the notes gathered while building the query.
func (q Query) Warnings() []string {
	return append([]string(nil), q.warnings...)
}

// Get executes the query in the variant's default format.
func (q Query) Get() (*Result, error) {
	return q.GetFormat(q.strat.defaultFormat())
}

// GetFormat executes the query in the given format. The filtered,
// reshaped result is cached under the query signature; grouping and
// top-n run on a private copy after retrieval.
func (q Query) GetFormat(format Format) (*Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := validFormat(format); err != nil {
		return nil, err
	}

	sig := signature(q.filters, q.strat.name(), format)
	res, ok := q.cache.GetResult(sig)
	if !ok {
		fresh, err := q.strat.run(&q, format)
		if err != nil {
			return nil, err
		}
		q.cache.PutResult(sig, fresh)
		res = fresh.clone()
	}

	if q.grouped {
		res = groupSum(res, q.groupBy)
	}
	if q.topN > 0 {
		if err := topRows(res, q.topN, q.topBy); err != nil {
			return nil, err
		}
	}
	res.Warnings = append(append([]string(nil), q.warnings...), res.Warnings...)
	return res, nil
}

// EstimateSize reports how many rows the query would return before
// reshaping, without caching a result.
func (q Query) EstimateSize() (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	return q.strat.estimate(&q)
}

// topRows sorts rows by a column descending and truncates to n.
func topRows(res *Result, n int, by string) error {
	if len(res.Rows) > 0 {
		if _, ok := res.Rows[0][by]; !ok {
			return fmt.Errorf("%w: top column %q not in result", ErrInvalidInput, by)
		}
	}
	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, _ := reader.AsFloat64(res.Rows[i][by])
		b, _ := reader.AsFloat64(res.Rows[j][by])
		return a > b
	})
	if len(res.Rows) > n {
		res.Rows = res.Rows[:n]
	}
	return nil
}
