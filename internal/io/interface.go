// Package io reads and writes DataFrames as CSV, the interchange format the
// command-line tool uses to feed frames into skew diagnosis and salted joins.
// Readers infer column types from the data; writers render values the same
// way join keys are rendered, so a written frame reads back join-compatible.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/dataframe"
)

// DataReader reads a DataFrame from some source.
type DataReader interface {
	Read() (*dataframe.DataFrame, error)
}

// DataWriter writes a DataFrame to some destination.
type DataWriter interface {
	Write(df *dataframe.DataFrame) error
}

// CSVOptions configures CSV reading and writing.
type CSVOptions struct {
	Delimiter rune // field delimiter (default comma)
	Comment   rune // comment character (0 disables)
	Header    bool // whether the first row holds column names
}

// DefaultCSVOptions returns the default CSV configuration.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Comment:   0,
		Header:    true,
	}
}

// CSVReader reads CSV data into a DataFrame.
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a CSV reader. A nil allocator falls back to the Go
// allocator.
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &CSVReader{reader: reader, options: options, mem: mem}
}

// CSVWriter writes a DataFrame as CSV.
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{writer: writer, options: options}
}
