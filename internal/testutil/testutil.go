// Package testutil provides helpers for building skewed test datasets and
// comparing join results as row multisets.
package testutil

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/dataframe"
	"github.com/paveg/mandrill/internal/series"
	"github.com/stretchr/testify/require"
)

// KeyDist is one key's row count in a generated dataset.
type KeyDist struct {
	Key   string
	Count int
}

// ExpandKeys turns a distribution into a flat slice of row keys, grouped by
// key in the given order.
func ExpandKeys(dist []KeyDist) []string {
	var keys []string
	for _, d := range dist {
		for i := 0; i < d.Count; i++ {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// SkewedFrame builds a two-column frame (key column plus an int64 "seq"
// column numbering the rows) following the given key distribution.
func SkewedFrame(keyName string, dist []KeyDist, mem memory.Allocator) *dataframe.DataFrame {
	keys := ExpandKeys(dist)
	seq := make([]int64, len(keys))
	for i := range seq {
		seq[i] = int64(i)
	}
	return dataframe.New(
		series.New(keyName, keys, mem),
		series.New("seq", seq, mem),
	)
}

// RenderRows renders every row of a frame as a single delimited string, with
// column values in schema order. Nulls render as "<null>" so they compare
// distinct from empty strings.
func RenderRows(df *dataframe.DataFrame) []string {
	cols := df.Columns()
	rows := make([]string, df.Len())

	for i := 0; i < df.Len(); i++ {
		parts := make([]string, 0, len(cols))
		for _, name := range cols {
			s, _ := df.Column(name)
			if s.IsNull(i) {
				parts = append(parts, "<null>")
			} else {
				parts = append(parts, s.GetAsString(i))
			}
		}
		rows[i] = strings.Join(parts, "|")
	}
	return rows
}

// RequireSameRows asserts that two frames hold the same multiset of rows,
// ignoring row order. Column order must match.
func RequireSameRows(t *testing.T, want, got *dataframe.DataFrame) {
	t.Helper()

	require.Equal(t, want.Columns(), got.Columns(), "column schemas differ")

	wantRows := RenderRows(want)
	gotRows := RenderRows(got)
	sort.Strings(wantRows)
	sort.Strings(gotRows)
	require.Equal(t, wantRows, gotRows, "row multisets differ")
}

// RequireKeyCounts asserts the per-key row counts of a frame's key column.
func RequireKeyCounts(t *testing.T, df *dataframe.DataFrame, key string, want map[string]int) {
	t.Helper()

	col, ok := df.Column(key)
	require.True(t, ok, "key column %q missing", key)

	got := make(map[string]int)
	for i := 0; i < df.Len(); i++ {
		if !col.IsNull(i) {
			got[col.GetAsString(i)]++
		}
	}
	require.Equal(t, want, got, "per-key row counts differ")
}

// RequireNoColumn asserts a frame does not carry the named column. Used to
// verify salt bookkeeping never leaks into results.
func RequireNoColumn(t *testing.T, df *dataframe.DataFrame, name string) {
	t.Helper()
	require.False(t, df.HasColumn(name),
		fmt.Sprintf("column %q should not be present in %v", name, df.Columns()))
}
