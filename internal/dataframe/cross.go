package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/series"
)

// Sequence creates a single-column frame holding the integers [0, n). It is
// the generated-sequence primitive used to explode the broadcast side of a
// salted join.
func Sequence(name string, n int, mem memory.Allocator) *DataFrame {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if n < 0 {
		n = 0
	}

	values := make([]int64, n)
	for i := range values {
		values[i] = int64(i)
	}
	return New(series.New(name, values, mem))
}

// CrossJoin returns the cartesian product of two frames in row-major order:
// for each left row, every right row in sequence. Callers that later need to
// recover the source rows of a product row rely on this ordering; it is part
// of the method's contract.
func (df *DataFrame) CrossJoin(right *DataFrame) *DataFrame {
	mem := memory.NewGoAllocator()

	leftLen := df.Len()
	rightLen := right.Len()
	total := leftLen * rightLen

	li := make([]int, total)
	ri := make([]int, total)
	pos := 0
	for i := 0; i < leftLen; i++ {
		for j := 0; j < rightLen; j++ {
			li[pos] = i
			ri[pos] = j
			pos++
		}
	}

	return df.buildJoinResult(right, li, ri, defaultCollisionSuffix, mem)
}
