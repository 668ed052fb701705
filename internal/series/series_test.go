package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("string series", func(t *testing.T) {
		s := New("name", []string{"alice", "bob", "carol"}, mem)
		defer s.Release()

		assert.Equal(t, "name", s.Name())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, arrow.STRING, s.DataType().ID())
		assert.Equal(t, []string{"alice", "bob", "carol"}, s.Values())
	})

	t.Run("int64 series", func(t *testing.T) {
		s := New("count", []int64{1, 2, 3}, mem)
		defer s.Release()

		assert.Equal(t, arrow.INT64, s.DataType().ID())
		assert.Equal(t, int64(2), s.Value(1))
	})

	t.Run("float64 series", func(t *testing.T) {
		s := New("score", []float64{1.5, 2.5}, mem)
		defer s.Release()

		assert.Equal(t, arrow.FLOAT64, s.DataType().ID())
		assert.Equal(t, []float64{1.5, 2.5}, s.Values())
	})

	t.Run("bool series", func(t *testing.T) {
		s := New("active", []bool{true, false}, mem)
		defer s.Release()

		assert.Equal(t, arrow.BOOL, s.DataType().ID())
		assert.True(t, s.Value(0))
		assert.False(t, s.Value(1))
	})

	t.Run("nil allocator falls back", func(t *testing.T) {
		s := New("x", []int64{42}, nil)
		defer s.Release()

		assert.Equal(t, 1, s.Len())
	})

	t.Run("unsupported element type panics", func(t *testing.T) {
		assert.Panics(t, func() {
			New("bad", []complex128{1 + 2i}, mem)
		})
	})
}

func TestSeriesValueOutOfRange(t *testing.T) {
	mem := memory.NewGoAllocator()
	s := New("x", []int64{10, 20}, mem)
	defer s.Release()

	assert.Equal(t, int64(0), s.Value(-1))
	assert.Equal(t, int64(0), s.Value(2))
}

func TestGetAsString(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name   string
		series interface {
			GetAsString(int) string
			Release()
		}
		index int
		want  string
	}{
		{"string value", New("s", []string{"hot"}, mem), 0, "hot"},
		{"int64 value", New("i", []int64{-42}, mem), 0, "-42"},
		{"int32 value", New("i", []int32{7}, mem), 0, "7"},
		{"float64 value", New("f", []float64{2.5}, mem), 0, "2.5"},
		{"bool value", New("b", []bool{true}, mem), 0, "true"},
		{"out of range", New("s", []string{"x"}, mem), 5, ""},
		{"negative index", New("s", []string{"x"}, mem), -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.series.Release()
			assert.Equal(t, tt.want, tt.series.GetAsString(tt.index))
		})
	}
}

func TestGetAsStringStableForEqualValues(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := New("x", []float64{1.0, 1.0}, mem)
	defer a.Release()

	assert.Equal(t, a.GetAsString(0), a.GetAsString(1))
}

func TestCanRender(t *testing.T) {
	assert.True(t, CanRender(arrow.BinaryTypes.String))
	assert.True(t, CanRender(arrow.PrimitiveTypes.Int64))
	assert.True(t, CanRender(arrow.PrimitiveTypes.Float64))
	assert.True(t, CanRender(arrow.FixedWidthTypes.Boolean))
	assert.False(t, CanRender(arrow.BinaryTypes.Binary))
	assert.False(t, CanRender(arrow.FixedWidthTypes.Timestamp_ns))
}

func TestUntypedFromArrow(t *testing.T) {
	mem := memory.NewGoAllocator()

	b := array.NewStringBuilder(mem)
	b.Append("a")
	b.AppendNull()
	b.Append("c")
	arr := b.NewArray()
	b.Release()

	s := FromArrow("col", arr)
	defer s.Release()

	require.Equal(t, 3, s.Len())
	assert.Equal(t, "col", s.Name())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))
	assert.Equal(t, "a", s.GetAsString(0))
	assert.Equal(t, "", s.GetAsString(1))
	assert.Equal(t, "c", s.GetAsString(2))
}

func TestSeriesArrayRetains(t *testing.T) {
	mem := memory.NewGoAllocator()
	s := New("x", []int64{1, 2, 3}, mem)
	defer s.Release()

	arr := s.Array()
	require.NotNil(t, arr)
	defer arr.Release()

	assert.Equal(t, 3, arr.Len())
}
