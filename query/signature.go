package query

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// signature computes the Result Signature: a deterministic digest of
// the normalized filter state, the query variant, and the output
// format. Keys are written sorted and every value through its
// canonical encoding, so filter chains producing the same final state
// hash identically regardless of call order, and codes that arrived as
// different native integer widths hash identically after int64
// normalization.
func signature(f FilterState, variant string, format Format) string {
	d := xxhash.New()
	writeString(d, variant)
	writeString(d, string(format))
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		writeString(d, key)
		writeString(d, v.canonical())
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func writeString(w io.Writer, s string) {
	// Length-prefix to keep adjacent fields from colliding.
	_, _ = fmt.Fprintf(w, "%d:%s;", len(s), s)
}
