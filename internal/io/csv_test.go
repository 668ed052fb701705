package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/dataframe"
	"github.com/paveg/mandrill/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReadTypeInference(t *testing.T) {
	input := "key,count,score,active\nhot,10,0.5,true\ncold,20,1.5,false\n"

	r := NewCSVReader(strings.NewReader(input), DefaultCSVOptions(), nil)
	df, err := r.Read()
	require.NoError(t, err)

	require.Equal(t, 2, df.Len())
	assert.Equal(t, []string{"key", "count", "score", "active"}, df.Columns())

	key, _ := df.Column("key")
	count, _ := df.Column("count")
	score, _ := df.Column("score")
	active, _ := df.Column("active")

	assert.Equal(t, arrow.STRING, key.DataType().ID())
	assert.Equal(t, arrow.INT64, count.DataType().ID())
	assert.Equal(t, arrow.FLOAT64, score.DataType().ID())
	assert.Equal(t, arrow.BOOL, active.DataType().ID())

	assert.Equal(t, "hot", key.GetAsString(0))
	assert.Equal(t, "20", count.GetAsString(1))
}

func TestCSVReadNoHeader(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.Header = false

	r := NewCSVReader(strings.NewReader("a,1\nb,2\n"), opts, nil)
	df, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, []string{"column_0", "column_1"}, df.Columns())
	assert.Equal(t, 2, df.Len())
}

func TestCSVReadEmptyInput(t *testing.T) {
	r := NewCSVReader(strings.NewReader(""), DefaultCSVOptions(), nil)
	df, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, df.Len())
	assert.Equal(t, 0, df.Width())
}

func TestCSVReadHeaderOnly(t *testing.T) {
	r := NewCSVReader(strings.NewReader("k,v\n"), DefaultCSVOptions(), nil)
	df, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, df.Len())
	assert.Equal(t, []string{"k", "v"}, df.Columns())
}

func TestCSVReadMixedColumnFallsBackToString(t *testing.T) {
	r := NewCSVReader(strings.NewReader("v\n1\ntwo\n"), DefaultCSVOptions(), nil)
	df, err := r.Read()
	require.NoError(t, err)

	v, _ := df.Column("v")
	assert.Equal(t, arrow.STRING, v.DataType().ID())
}

func TestCSVWrite(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("k", []string{"a", "b"}, mem),
		series.New("n", []int64{1, 2}, mem),
	)

	var buf bytes.Buffer
	w := NewCSVWriter(&buf, DefaultCSVOptions())
	require.NoError(t, w.Write(df))

	assert.Equal(t, "k,n\na,1\nb,2\n", buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	input := "k,n\nhot,1\nhot,2\ncold,3\n"

	r := NewCSVReader(strings.NewReader(input), DefaultCSVOptions(), nil)
	df, err := r.Read()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf, DefaultCSVOptions()).Write(df))
	assert.Equal(t, input, buf.String())
}

func TestCSVCustomDelimiter(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.Delimiter = ';'

	r := NewCSVReader(strings.NewReader("a;b\n1;2\n"), opts, nil)
	df, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, df.Columns())
}
