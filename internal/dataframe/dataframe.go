// Package dataframe implements the tabular engine surface consumed by the
// salted-join component: column storage, equality joins, cross joins,
// group-by aggregation and integer sequence generation.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/errors"
	"github.com/paveg/mandrill/internal/series"
)

// DataFrame is an ordered collection of named columns. Frames are immutable:
// every operation returns a new frame and leaves its inputs untouched, so
// concurrent operations on the same frame need no coordination.
type DataFrame struct {
	columns map[string]ISeries
	order   []string
}

// New creates a DataFrame from columns. Column order follows argument order.
func New(cols ...ISeries) *DataFrame {
	columns := make(map[string]ISeries, len(cols))
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		if _, exists := columns[name]; !exists {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{columns: columns, order: order}
}

// Columns returns the column names in order.
func (df *DataFrame) Columns() []string {
	return append([]string(nil), df.order...)
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	if s, ok := df.columns[df.order[0]]; ok {
		return s.Len()
	}
	return 0
}

// Width returns the number of columns.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the column with the given name.
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, ok := df.columns[name]
	return s, ok
}

// HasColumn reports whether a column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.columns[name]
	return ok
}

// Select returns a new DataFrame with only the named columns, in the given
// order. Unknown names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	cols := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, ok := df.columns[name]; ok {
			cols = append(cols, s)
		}
	}
	return New(cols...)
}

// Drop returns a new DataFrame without the named columns.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			cols = append(cols, df.columns[name])
		}
	}
	return New(cols...)
}

// WithColumn returns a new DataFrame with the given column appended. The
// column length must match the frame's row count and the name must be unused.
func (df *DataFrame) WithColumn(col ISeries) (*DataFrame, error) {
	if df.HasColumn(col.Name()) {
		return nil, errors.NewInvalidInputError("WithColumn",
			fmt.Sprintf("column %q already exists", col.Name()))
	}
	if len(df.order) > 0 && col.Len() != df.Len() {
		return nil, errors.NewInvalidInputError("WithColumn",
			fmt.Sprintf("column %q has %d rows, frame has %d", col.Name(), col.Len(), df.Len()))
	}

	cols := make([]ISeries, 0, len(df.order)+1)
	for _, name := range df.order {
		cols = append(cols, df.columns[name])
	}
	cols = append(cols, col)
	return New(cols...), nil
}

// String returns a short schema description.
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, df.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory.
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}

// takeColumn gathers rows of a column by index. An index of -1 produces a
// null, which is how unmatched rows of outer joins surface in results.
func takeColumn(src ISeries, indices []int, mem memory.Allocator) ISeries {
	return takeColumnAs(src.Name(), src, indices, mem)
}

// takeColumnAs is takeColumn with an explicit result name.
func takeColumnAs(name string, src ISeries, indices []int, mem memory.Allocator) ISeries {
	arr := src.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return gatherTyped(name, typed, indices, mem, array.NewStringBuilder,
			func(b *array.StringBuilder, a *array.String, i int) { b.Append(a.Value(i)) })
	case *array.Int64:
		return gatherTyped(name, typed, indices, mem, array.NewInt64Builder,
			func(b *array.Int64Builder, a *array.Int64, i int) { b.Append(a.Value(i)) })
	case *array.Int32:
		return gatherTyped(name, typed, indices, mem, array.NewInt32Builder,
			func(b *array.Int32Builder, a *array.Int32, i int) { b.Append(a.Value(i)) })
	case *array.Float64:
		return gatherTyped(name, typed, indices, mem, array.NewFloat64Builder,
			func(b *array.Float64Builder, a *array.Float64, i int) { b.Append(a.Value(i)) })
	case *array.Float32:
		return gatherTyped(name, typed, indices, mem, array.NewFloat32Builder,
			func(b *array.Float32Builder, a *array.Float32, i int) { b.Append(a.Value(i)) })
	case *array.Boolean:
		return gatherTyped(name, typed, indices, mem, array.NewBooleanBuilder,
			func(b *array.BooleanBuilder, a *array.Boolean, i int) { b.Append(a.Value(i)) })
	default:
		// Unsupported column types gather as all-null strings.
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for range indices {
			b.AppendNull()
		}
		return series.FromArrow(name, b.NewArray())
	}
}

// builderOf is the subset of the Arrow builder API gatherTyped relies on.
type builderOf interface {
	AppendNull()
	NewArray() arrow.Array
	Release()
}

func gatherTyped[A arrow.Array, B builderOf](
	name string, src A, indices []int, mem memory.Allocator,
	newBuilder func(memory.Allocator) B,
	appendValue func(B, A, int),
) ISeries {
	b := newBuilder(mem)
	defer b.Release()

	for _, idx := range indices {
		if idx < 0 || idx >= src.Len() || src.IsNull(idx) {
			b.AppendNull()
		} else {
			appendValue(b, src, idx)
		}
	}
	return series.FromArrow(name, b.NewArray())
}

// takeCoalesced gathers a column from two sources: row i takes left[li[i]]
// when li[i] >= 0, otherwise right[ri[i]]. Used to restore the join key
// column, which must be non-null wherever either side contributed a row.
func takeCoalesced(name string, left, right ISeries, li, ri []int, mem memory.Allocator) (ISeries, error) {
	if left.DataType().ID() != right.DataType().ID() {
		return nil, errors.NewInvalidInputError("Join",
			fmt.Sprintf("key column %q has mismatched types: %s vs %s",
				name, left.DataType(), right.DataType()))
	}

	// Gather in two passes over the same row order: split indices per source,
	// take from each, then merge by position.
	leftIdx := make([]int, len(li))
	rightIdx := make([]int, len(li))
	for i := range li {
		if li[i] >= 0 {
			leftIdx[i] = li[i]
			rightIdx[i] = -1
		} else {
			leftIdx[i] = -1
			rightIdx[i] = ri[i]
		}
	}

	leftTaken := takeColumnAs(name, left, leftIdx, mem)
	defer leftTaken.Release()
	rightTaken := takeColumnAs(name, right, rightIdx, mem)
	defer rightTaken.Release()

	return mergeNonNull(name, leftTaken, rightTaken, mem), nil
}

// mergeNonNull builds a column taking each row from a where non-null,
// otherwise from b. Both columns must share the same Arrow type and length.
func mergeNonNull(name string, a, b ISeries, mem memory.Allocator) ISeries {
	aArr := a.Array()
	defer aArr.Release()
	bArr := b.Array()
	defer bArr.Release()

	switch typedA := aArr.(type) {
	case *array.String:
		return mergeTyped(name, typedA, bArr.(*array.String), mem, array.NewStringBuilder,
			func(bd *array.StringBuilder, ar *array.String, i int) { bd.Append(ar.Value(i)) })
	case *array.Int64:
		return mergeTyped(name, typedA, bArr.(*array.Int64), mem, array.NewInt64Builder,
			func(bd *array.Int64Builder, ar *array.Int64, i int) { bd.Append(ar.Value(i)) })
	case *array.Int32:
		return mergeTyped(name, typedA, bArr.(*array.Int32), mem, array.NewInt32Builder,
			func(bd *array.Int32Builder, ar *array.Int32, i int) { bd.Append(ar.Value(i)) })
	case *array.Float64:
		return mergeTyped(name, typedA, bArr.(*array.Float64), mem, array.NewFloat64Builder,
			func(bd *array.Float64Builder, ar *array.Float64, i int) { bd.Append(ar.Value(i)) })
	case *array.Float32:
		return mergeTyped(name, typedA, bArr.(*array.Float32), mem, array.NewFloat32Builder,
			func(bd *array.Float32Builder, ar *array.Float32, i int) { bd.Append(ar.Value(i)) })
	case *array.Boolean:
		return mergeTyped(name, typedA, bArr.(*array.Boolean), mem, array.NewBooleanBuilder,
			func(bd *array.BooleanBuilder, ar *array.Boolean, i int) { bd.Append(ar.Value(i)) })
	default:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i := 0; i < a.Len(); i++ {
			builder.AppendNull()
		}
		return series.FromArrow(name, builder.NewArray())
	}
}

func mergeTyped[A arrow.Array, B builderOf](
	name string, a, b A, mem memory.Allocator,
	newBuilder func(memory.Allocator) B,
	appendValue func(B, A, int),
) ISeries {
	builder := newBuilder(mem)
	defer builder.Release()

	for i := 0; i < a.Len(); i++ {
		switch {
		case !a.IsNull(i):
			appendValue(builder, a, i)
		case !b.IsNull(i):
			appendValue(builder, b, i)
		default:
			builder.AppendNull()
		}
	}
	return series.FromArrow(name, builder.NewArray())
}
