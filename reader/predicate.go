package reader

import "fmt"

// Predicate is a membership test over a single storage column. The only
// operator is "in": a row passes when the column value equals one of
// the listed codes. A predicate list is conjunctive; each predicate
// already supplies an OR internally via its value list.
type Predicate struct {
	Column string
	Op     string // always "in"
	Values []int64
}

// In builds an "in" predicate over the given column.
func In(column string, values ...int64) Predicate {
	return Predicate{Column: column, Op: "in", Values: values}
}

// Match reports whether a row satisfies every predicate in the list.
// Rows lacking a predicated column do not match.
func Match(row map[string]interface{}, predicates []Predicate) bool {
	for _, p := range predicates {
		value, exists := row[p.Column]
		if !exists {
			return false
		}
		code, ok := AsInt64(value)
		if !ok {
			return false
		}
		found := false
		for _, want := range p.Values {
			if code == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AsInt64 converts a value to int64 if it holds an integral number.
// Parquet readers surface integer columns as different native widths
// depending on the physical type, so all of them normalize here.
func AsInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case int:
		return int64(val), true
	case int16:
		return int64(val), true
	case int8:
		return int64(val), true
	case uint64:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint8:
		return int64(val), true
	case float64:
		if val == float64(int64(val)) {
			return int64(val), true
		}
		return 0, false
	case float32:
		if float64(val) == float64(int64(val)) {
			return int64(val), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat64 converts a value to float64 if it holds any numeric type.
func AsFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case int:
		return float64(val), true
	case int16:
		return float64(val), true
	case int8:
		return float64(val), true
	case uint64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint8:
		return float64(val), true
	default:
		return 0, false
	}
}

func (p Predicate) String() string {
	return fmt.Sprintf("(%s %s %v)", p.Column, p.Op, p.Values)
}
