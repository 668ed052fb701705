// Package series provides typed, Arrow-backed data columns.
package series

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series is a named, typed column backed by an Apache Arrow array.
type Series[T any] struct {
	name string
	arr  arrow.Array
}

// New creates a Series from a slice of values. Supported element types are
// string, int64, int32, float64, float32 and bool; anything else panics, the
// same way an engine rejects a column type it has no physical layout for.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var arr arrow.Array
	switch vals := any(values).(type) {
	case []string:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	case []float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(vals, nil)
		arr = b.NewArray()
	default:
		panic(fmt.Sprintf("series: unsupported element type %T", values))
	}

	return &Series[T]{name: name, arr: arr}
}

// Name returns the column name.
func (s *Series[T]) Name() string { return s.name }

// Len returns the number of values in the column.
func (s *Series[T]) Len() int { return s.arr.Len() }

// DataType returns the Arrow data type of the column.
func (s *Series[T]) DataType() arrow.DataType { return s.arr.DataType() }

// IsNull reports whether the value at index is null.
func (s *Series[T]) IsNull(index int) bool { return s.arr.IsNull(index) }

// Value returns the value at the given index, or the zero value when the
// index is out of range.
func (s *Series[T]) Value(index int) T {
	var zero T
	if index < 0 || index >= s.arr.Len() {
		return zero
	}

	switch arr := s.arr.(type) {
	case *array.String:
		if v, ok := any(&zero).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&zero).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Int32:
		if v, ok := any(&zero).(*int32); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&zero).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Float32:
		if v, ok := any(&zero).(*float32); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&zero).(*bool); ok {
			*v = arr.Value(index)
		}
	}

	return zero
}

// Values returns the column data as a Go slice.
func (s *Series[T]) Values() []T {
	out := make([]T, s.arr.Len())
	for i := range out {
		out[i] = s.Value(i)
	}
	return out
}

// GetAsString renders the value at index as text. This is the rendering used
// to build composite and salted join keys, so the output must be stable for
// equal values. Unsupported array types yield an empty string; callers that
// need a hard failure check renderability up front via CanRender.
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.arr.Len() || s.arr.IsNull(index) {
		return ""
	}

	switch arr := s.arr.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(index)), 'g', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	default:
		return ""
	}
}

// CanRender reports whether values of the given Arrow type can be rendered as
// text by GetAsString.
func CanRender(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.STRING, arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32, arrow.BOOL:
		return true
	default:
		return false
	}
}

// String returns a short description of the series.
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s] %s (len=%d)", s.arr.DataType(), s.name, s.Len())
}

// Array returns the underlying Arrow array, retaining a reference the caller
// must release.
func (s *Series[T]) Array() arrow.Array {
	if s.arr != nil {
		s.arr.Retain()
		return s.arr
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (s *Series[T]) Release() {
	if s.arr != nil {
		s.arr.Release()
	}
}
