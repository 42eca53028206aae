package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/darshanpandit/tidyfaf/metadata"
	"github.com/darshanpandit/tidyfaf/reader"
)

// Sentinels for the query error taxonomy.
var (
	// ErrInvalidInput covers invalid years, scenarios, formats, and
	// mixed-granularity geography under auto-detection. Raised before
	// any load is attempted.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported marks operations a variant does not support, such
	// as zone filters on state-level data.
	ErrUnsupported = errors.New("operation not supported")
)

// Level is a geography granularity for resolution.
type Level string

const (
	LevelState Level = "state"
	LevelZone  Level = "zone"
	LevelAuto  Level = "auto"
)

// zoneCodeThreshold is the numeric heuristic for auto-detection: codes
// above it look like zones, codes at or below it look like states. The
// guess is verified against the reference tables when metadata is
// available.
const zoneCodeThreshold = 100

// ResolveGeography resolves a mixed list of names and numeric codes to
// canonical geography codes at the given level.
//
// Numeric inputs are classified by the forced level, or under LevelAuto
// by the >100 heuristic checked against the reference tables (a code
// that only exists at the other level resolves there instead). String
// inputs are looked up in the reference tables; under LevelAuto the
// state table is tried before the zone table. Mixed resolved levels
// under LevelAuto are an error; under a forced level a mismatch only
// produces a warning. md may be nil, in which case numeric codes are
// trusted to the heuristic and name lookups fail.
func ResolveGeography(md *metadata.Metadata, values []interface{}, level Level) (codes []int64, detected Level, warnings []string, err error) {
	if level != LevelState && level != LevelZone && level != LevelAuto {
		return nil, "", nil, fmt.Errorf("%w: unknown geography level %q", ErrInvalidInput, level)
	}

	var levels []Level
	for _, value := range values {
		if code, ok := reader.AsInt64(value); ok {
			lvl, warn, err := classifyCode(md, code, level)
			if err != nil {
				return nil, "", nil, err
			}
			if warn != "" {
				warnings = append(warnings, warn)
			}
			codes = append(codes, code)
			levels = append(levels, lvl)
			continue
		}

		name, ok := value.(string)
		if !ok {
			return nil, "", nil, fmt.Errorf("%w: geography value %v (%T) is neither a code nor a name", ErrInvalidInput, value, value)
		}
		if md == nil {
			return nil, "", nil, fmt.Errorf("%w: cannot resolve %q without metadata", ErrInvalidInput, name)
		}

		code, lvl, err := resolveName(md, strings.TrimSpace(name), level)
		if err != nil {
			return nil, "", nil, err
		}
		codes = append(codes, code)
		levels = append(levels, lvl)
	}

	mixed := false
	for _, lvl := range levels {
		if lvl != levels[0] {
			mixed = true
			break
		}
	}
	if mixed {
		if level == LevelAuto {
			return nil, "", nil, fmt.Errorf(
				"%w: mixed state and zone inputs; use separate state and zone filter calls for cross-level queries",
				ErrInvalidInput)
		}
		warnings = append(warnings, fmt.Sprintf("some inputs do not match requested level %q", level))
	}

	detected = level
	if len(levels) > 0 {
		detected = levels[0]
	}
	return codes, detected, warnings, nil
}

// classifyCode determines which level a numeric code belongs to.
func classifyCode(md *metadata.Metadata, code int64, level Level) (Level, string, error) {
	guess := LevelState
	if code > zoneCodeThreshold {
		guess = LevelZone
	}

	if level != LevelAuto {
		if md != nil && !hasCode(md, code, level) && hasCode(md, code, otherLevel(level)) {
			return level, fmt.Sprintf("code %d resolves to a %s, not a %s", code, otherLevel(level), level), nil
		}
		return level, "", nil
	}

	if md == nil {
		return guess, "", nil
	}
	// Verify the heuristic against the reference tables rather than
	// trusting the threshold blindly.
	if hasCode(md, code, guess) {
		return guess, "", nil
	}
	if hasCode(md, code, otherLevel(guess)) {
		return otherLevel(guess), "", nil
	}
	notFound := metadata.ErrStateNotFound
	if guess == LevelZone {
		notFound = metadata.ErrZoneNotFound
	}
	return "", "", fmt.Errorf("%w: code %d", notFound, code)
}

func resolveName(md *metadata.Metadata, name string, level Level) (int64, Level, error) {
	if level == LevelState || level == LevelAuto {
		if code, err := md.LookupState(name); err == nil {
			return code, LevelState, nil
		}
	}
	if level == LevelZone || level == LevelAuto {
		if code, err := md.LookupZone(name); err == nil {
			return code, LevelZone, nil
		}
	}
	notFound := metadata.ErrZoneNotFound
	if level == LevelState {
		notFound = metadata.ErrStateNotFound
	}
	return 0, "", fmt.Errorf("%w: could not resolve %q; check spelling or search the reference tables for it", notFound, name)
}

func hasCode(md *metadata.Metadata, code int64, level Level) bool {
	if level == LevelState {
		return md.HasState(code)
	}
	return md.HasZone(code)
}

func otherLevel(level Level) Level {
	if level == LevelState {
		return LevelZone
	}
	return LevelState
}

// ResolveCommodities resolves commodity names and SCTG2 codes to
// codes. Numeric inputs pass through; names are looked up
// case-insensitively.
func ResolveCommodities(md *metadata.Metadata, values []interface{}) ([]int64, error) {
	return resolveCodes(md, values, func(name string) (int64, error) {
		code, err := md.LookupCommodity(name)
		if err != nil {
			return 0, fmt.Errorf("%w; search the commodity table for %q", err, name)
		}
		return code, nil
	})
}

// ResolveModes resolves mode names and codes to mode codes.
func ResolveModes(md *metadata.Metadata, values []interface{}) ([]int64, error) {
	return resolveCodes(md, values, func(name string) (int64, error) {
		return md.LookupMode(name)
	})
}

var tradeTypeCodes = map[string]int64{
	"domestic": 1,
	"import":   2,
	"export":   3,
}

// ResolveTradeTypes resolves trade-type names (Domestic, Import,
// Export) and codes.
func ResolveTradeTypes(values []interface{}) ([]int64, error) {
	var codes []int64
	for _, value := range values {
		if code, ok := reader.AsInt64(value); ok {
			codes = append(codes, code)
			continue
		}
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: trade type %v (%T)", ErrInvalidInput, value, value)
		}
		code, ok := tradeTypeCodes[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown trade type %q (valid: Domestic, Import, Export)", ErrInvalidInput, name)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func resolveCodes(md *metadata.Metadata, values []interface{}, lookup func(string) (int64, error)) ([]int64, error) {
	var codes []int64
	for _, value := range values {
		if code, ok := reader.AsInt64(value); ok {
			codes = append(codes, code)
			continue
		}
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: value %v (%T) is neither a code nor a name", ErrInvalidInput, value, value)
		}
		if md == nil {
			return nil, fmt.Errorf("%w: cannot resolve %q without metadata", ErrInvalidInput, name)
		}
		code, err := lookup(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// ValidateYears rejects years outside the actual and forecast domains
// and returns the valid input sorted and deduplicated.
func ValidateYears(years []int) ([]int, error) {
	var invalid []int
	for _, y := range years {
		if !IsValidYear(y) {
			invalid = append(invalid, y)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf(
			"%w: invalid years %v (valid: %d-%d actual, %d-%d in %d-year intervals forecast)",
			ErrInvalidInput, invalid, firstActualYear, lastActualYear,
			firstForecastYear, lastForecastYear, forecastStride)
	}
	out := make([]int, 0, len(years))
	seen := make(map[int]bool, len(years))
	for _, y := range years {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Ints(out)
	return out, nil
}
