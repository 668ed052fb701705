package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataFrameErrorMessage(t *testing.T) {
	withColumn := NewColumnNotFoundError("SaltedJoin", "user_id")
	assert.Equal(t,
		"SaltedJoin operation failed on column 'user_id': column does not exist",
		withColumn.Error())

	withoutColumn := NewInvalidInputError("SaltedJoin", "salt factor must be positive, got -1")
	assert.Equal(t,
		"SaltedJoin operation failed: salt factor must be positive, got -1",
		withoutColumn.Error())
}

func TestUnsupportedTypeError(t *testing.T) {
	err := NewUnsupportedTypeError("DiagnoseSkew", "payload", "binary")
	assert.Contains(t, err.Error(), "unsupported type: binary")
	assert.Equal(t, "payload", err.Column)
}

func TestInternalErrorWraps(t *testing.T) {
	cause := fmt.Errorf("allocator exhausted")
	err := NewInternalError("Join", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorIsMatching(t *testing.T) {
	a := NewColumnNotFoundError("Join", "k")
	b := NewColumnNotFoundError("Join", "k")
	c := NewColumnNotFoundError("Join", "other")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}
