package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/series"
)

// GroupBy holds rows grouped by the rendered values of one or more columns.
// Group order is first-appearance order, so aggregation output is
// deterministic for a given input frame.
type GroupBy struct {
	df       *DataFrame
	cols     []string
	groups   map[string][]int
	keyOrder []string
}

// GroupBy groups the frame's rows by the given columns.
func (df *DataFrame) GroupBy(cols ...string) *GroupBy {
	groups := make(map[string][]int)
	var keyOrder []string

	for i := 0; i < df.Len(); i++ {
		key := buildJoinKey(df, cols, i)
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], i)
	}

	return &GroupBy{df: df, cols: cols, groups: groups, keyOrder: keyOrder}
}

// Count returns a frame with the group columns and a row count per group.
func (gb *GroupBy) Count(countName string) *DataFrame {
	mem := memory.NewGoAllocator()

	cols := gb.groupColumns(mem)

	counts := make([]int64, 0, len(gb.keyOrder))
	for _, key := range gb.keyOrder {
		counts = append(counts, int64(len(gb.groups[key])))
	}
	cols = append(cols, series.New(countName, counts, mem))

	return New(cols...)
}

// Sum returns a frame with the group columns and the per-group sum of a
// numeric column. Non-numeric values contribute zero.
func (gb *GroupBy) Sum(column, sumName string) *DataFrame {
	mem := memory.NewGoAllocator()

	cols := gb.groupColumns(mem)

	var src ISeries
	if s, ok := gb.df.Column(column); ok {
		src = s
	}

	sums := make([]float64, 0, len(gb.keyOrder))
	for _, key := range gb.keyOrder {
		sums = append(sums, sumRows(src, gb.groups[key]))
	}
	cols = append(cols, series.New(sumName, sums, mem))

	return New(cols...)
}

// Size returns the number of distinct groups.
func (gb *GroupBy) Size() int {
	return len(gb.groups)
}

// groupColumns builds one representative column per grouping column, taking
// the first row of each group.
func (gb *GroupBy) groupColumns(mem memory.Allocator) []ISeries {
	firstRows := make([]int, 0, len(gb.keyOrder))
	for _, key := range gb.keyOrder {
		firstRows = append(firstRows, gb.groups[key][0])
	}

	cols := make([]ISeries, 0, len(gb.cols))
	for _, name := range gb.cols {
		if src, ok := gb.df.Column(name); ok {
			cols = append(cols, takeColumn(src, firstRows, mem))
		}
	}
	return cols
}

func sumRows(src ISeries, rows []int) float64 {
	if src == nil {
		return 0
	}

	arr := src.Array()
	defer arr.Release()

	var sum float64
	for _, idx := range rows {
		if idx >= arr.Len() || arr.IsNull(idx) {
			continue
		}
		switch typed := arr.(type) {
		case *array.Int64:
			sum += float64(typed.Value(idx))
		case *array.Int32:
			sum += float64(typed.Value(idx))
		case *array.Float64:
			sum += typed.Value(idx)
		case *array.Float32:
			sum += float64(typed.Value(idx))
		}
	}
	return sum
}
