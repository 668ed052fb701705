package dataframe

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("generates [0, n)", func(t *testing.T) {
		seq := Sequence("idx", 4, mem)
		defer seq.Release()

		require.Equal(t, 4, seq.Len())
		col, _ := seq.Column("idx")
		for i := 0; i < 4; i++ {
			assert.Equal(t, int64(i), mustInt64(t, col, i))
		}
	})

	t.Run("zero length", func(t *testing.T) {
		seq := Sequence("idx", 0, mem)
		defer seq.Release()
		assert.Equal(t, 0, seq.Len())
	})

	t.Run("negative clamps to empty", func(t *testing.T) {
		seq := Sequence("idx", -3, mem)
		defer seq.Release()
		assert.Equal(t, 0, seq.Len())
	})
}

func TestCrossJoin(t *testing.T) {
	mem := memory.NewGoAllocator()

	left := New(series.New("k", []string{"a", "b"}, mem))
	right := New(series.New("n", []int64{0, 1, 2}, mem))

	result := left.CrossJoin(right)

	require.Equal(t, 6, result.Len())
	assert.Equal(t, []string{"k", "n"}, result.Columns())

	// Row-major: product row j pairs left row j/3 with right row j%3.
	k, _ := result.Column("k")
	n, _ := result.Column("n")
	wantK := []string{"a", "a", "a", "b", "b", "b"}
	wantN := []string{"0", "1", "2", "0", "1", "2"}
	for i := 0; i < result.Len(); i++ {
		assert.Equal(t, wantK[i], k.GetAsString(i), "row %d key", i)
		assert.Equal(t, wantN[i], n.GetAsString(i), "row %d index", i)
	}
}

func TestCrossJoinEmptySide(t *testing.T) {
	mem := memory.NewGoAllocator()

	left := New(series.New("k", []string{"a", "b"}, mem))
	empty := New(series.New("n", []int64{}, mem))

	assert.Equal(t, 0, left.CrossJoin(empty).Len())
	assert.Equal(t, 0, empty.CrossJoin(left).Len())
}

func TestCrossJoinCollidingNames(t *testing.T) {
	mem := memory.NewGoAllocator()

	left := New(series.New("v", []int64{1}, mem))
	right := New(series.New("v", []int64{2}, mem))

	result := left.CrossJoin(right)
	assert.Equal(t, []string{"v", "v_right"}, result.Columns())
}

func mustInt64(t *testing.T, col ISeries, i int) int64 {
	t.Helper()
	arr := col.Array()
	defer arr.Release()
	typed, ok := arr.(*array.Int64)
	require.True(t, ok, "column %q is not int64", col.Name())
	return typed.Value(i)
}
