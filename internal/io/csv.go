package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/mandrill/internal/dataframe"
	"github.com/paveg/mandrill/internal/series"
)

// Read parses the CSV stream into a DataFrame, inferring a column type from
// its values: bool, then int64, then float64, falling back to string. Empty
// cells count as the column type's zero value.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var rows [][]string
	if r.options.Header {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		rows = records
	}

	cols := make([]dataframe.ISeries, 0, len(headers))
	for i, name := range headers {
		values := make([]string, len(rows))
		for j, row := range rows {
			if i < len(row) {
				values[j] = row[i]
			}
		}
		cols = append(cols, r.buildColumn(name, values))
	}

	return dataframe.New(cols...), nil
}

// buildColumn converts one column of raw cells into a typed series.
func (r *CSVReader) buildColumn(name string, cells []string) dataframe.ISeries {
	switch inferType(cells) {
	case inferredBool:
		values := make([]bool, len(cells))
		for i, c := range cells {
			values[i] = strings.EqualFold(c, "true")
		}
		return series.New(name, values, r.mem)
	case inferredInt:
		values := make([]int64, len(cells))
		for i, c := range cells {
			if c != "" {
				values[i], _ = strconv.ParseInt(c, 10, 64)
			}
		}
		return series.New(name, values, r.mem)
	case inferredFloat:
		values := make([]float64, len(cells))
		for i, c := range cells {
			if c != "" {
				values[i], _ = strconv.ParseFloat(c, 64)
			}
		}
		return series.New(name, values, r.mem)
	default:
		return series.New(name, cells, r.mem)
	}
}

type inferredType int

const (
	inferredString inferredType = iota
	inferredBool
	inferredInt
	inferredFloat
)

// inferType picks the most specific type every non-empty cell parses as.
func inferType(cells []string) inferredType {
	canBool, canInt, canFloat := true, true, true
	nonEmpty := false

	for _, c := range cells {
		if c == "" {
			continue
		}
		nonEmpty = true

		if canBool {
			lower := strings.ToLower(c)
			canBool = lower == "true" || lower == "false"
		}
		if canInt {
			_, err := strconv.ParseInt(c, 10, 64)
			canInt = err == nil
		}
		if canFloat {
			_, err := strconv.ParseFloat(c, 64)
			canFloat = err == nil
		}
	}

	switch {
	case !nonEmpty:
		return inferredString
	case canBool:
		return inferredBool
	case canInt:
		return inferredInt
	case canFloat:
		return inferredFloat
	default:
		return inferredString
	}
}

// Write renders the DataFrame as CSV. Values render via the same text
// rendering joins use; nulls become empty cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter
	defer csvWriter.Flush()

	names := df.Columns()
	if w.options.Header {
		if err := csvWriter.Write(names); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	cols := make([]dataframe.ISeries, len(names))
	for i, name := range names {
		cols[i], _ = df.Column(name)
	}

	row := make([]string, len(cols))
	for i := 0; i < df.Len(); i++ {
		for j, col := range cols {
			row[j] = col.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	return csvWriter.Error()
}
