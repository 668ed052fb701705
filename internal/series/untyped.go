package series

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Untyped is a column wrapping an existing Arrow array without a compile-time
// element type. Join and cross-join results are built this way because their
// columns may carry nulls for unmatched rows, which the typed builder path
// does not produce.
type Untyped struct {
	name string
	arr  arrow.Array
}

// FromArrow wraps an Arrow array as a column. Takes ownership of the caller's
// reference.
func FromArrow(name string, arr arrow.Array) *Untyped {
	return &Untyped{name: name, arr: arr}
}

// Name returns the column name.
func (s *Untyped) Name() string { return s.name }

// Len returns the number of values in the column.
func (s *Untyped) Len() int { return s.arr.Len() }

// DataType returns the Arrow data type of the column.
func (s *Untyped) DataType() arrow.DataType { return s.arr.DataType() }

// IsNull reports whether the value at index is null.
func (s *Untyped) IsNull(index int) bool { return s.arr.IsNull(index) }

// GetAsString renders the value at index as text; nulls render empty.
func (s *Untyped) GetAsString(index int) string {
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

// String returns a short description of the series.
func (s *Untyped) String() string {
	return fmt.Sprintf("Series[%s] %s (len=%d)", s.arr.DataType(), s.name, s.Len())
}

// Array returns the underlying Arrow array, retaining a reference the caller
// must release.
func (s *Untyped) Array() arrow.Array {
	if s.arr != nil {
		s.arr.Retain()
		return s.arr
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (s *Untyped) Release() {
	if s.arr != nil {
		s.arr.Release()
	}
}
