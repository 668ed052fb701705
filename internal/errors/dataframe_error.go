// Package errors defines the standardized error type shared by all DataFrame
// and salted-join operations. Every public API failure is a *DataFrameError
// carrying the operation name, the column involved (when there is one) and an
// optional wrapped cause.
package errors

import (
	"fmt"
)

// DataFrameError is the error type returned by all operations in this module.
type DataFrameError struct {
	Op      string // operation name, e.g. "Join", "SaltedJoin", "DiagnoseSkew"
	Column  string // column name when the failure is column-specific
	Message string // human-readable description
	Cause   error  // wrapped underlying error, if any
}

// Error implements the error interface.
func (e *DataFrameError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is matches two DataFrameErrors on operation, column and message.
func (e *DataFrameError) Is(target error) bool {
	if other, ok := target.(*DataFrameError); ok {
		return e.Op == other.Op && e.Column == other.Column && e.Message == other.Message
	}
	return false
}

// NewColumnNotFoundError reports an operation against a column that does not
// exist in the DataFrame. Raised before any join work starts.
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewInvalidInputError reports an invalid configuration of an operation, such
// as a non-positive salt factor or an unrecognized join type. Configuration
// errors are surfaced to the caller before any computation is triggered.
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError reports a column whose Arrow type cannot take part
// in the requested operation, such as a join key that cannot be rendered as
// text for salting. Surfaced at transform time, never silently coerced.
func NewUnsupportedTypeError(op, column, typeName string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewInternalError wraps an unexpected failure from the execution layer,
// such as a derived column failing to attach. Such errors are propagated
// unchanged; retry policy belongs to the caller.
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}
