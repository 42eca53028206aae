package query

import (
	"fmt"

	"github.com/darshanpandit/tidyfaf/reader"
)

// innerJoinOn joins left rows to right rows on a pair of key columns,
// producing one output row per match. Right-side columns are merged
// into a copy of the left row; on a column name collision the left
// value wins.
func innerJoinOn(left []map[string]interface{}, leftKeys []string, right []map[string]interface{}, rightKeys []string) []map[string]interface{} {
	index := make(map[string][]map[string]interface{}, len(right))
	for _, row := range right {
		key, ok := joinKey(row, rightKeys)
		if !ok {
			continue
		}
		index[key] = append(index[key], row)
	}

	var out []map[string]interface{}
	for _, lrow := range left {
		key, ok := joinKey(lrow, leftKeys)
		if !ok {
			continue
		}
		for _, rrow := range index[key] {
			merged := make(map[string]interface{}, len(lrow)+len(rrow))
			for k, v := range rrow {
				merged[k] = v
			}
			for k, v := range lrow {
				merged[k] = v
			}
			out = append(out, merged)
		}
	}
	return out
}

// joinKey normalizes key values so int32 and int64 codes compare
// equal across files.
func joinKey(row map[string]interface{}, keys []string) (string, bool) {
	key := ""
	for i, k := range keys {
		v, present := row[k]
		if !present {
			return "", false
		}
		if i > 0 {
			key += "\x1f"
		}
		if n, ok := reader.AsInt64(v); ok {
			key += fmt.Sprintf("%d", n)
		} else {
			key += fmt.Sprintf("%v", v)
		}
	}
	return key, true
}
