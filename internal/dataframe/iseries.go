package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// ISeries is the type-erased interface for a column of any element type.
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}
