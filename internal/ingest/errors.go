package ingest

import (
	"fmt"
	"strings"
)

// MissingColumnsError indicates the CSV header lacks required columns.
// Structural: the whole upload is rejected before any upstream call.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// EmptyFileError indicates the CSV has a header but zero data rows.
type EmptyFileError struct{}

func (e *EmptyFileError) Error() string {
	return "csv contains no hospital rows"
}

// TooManyRowsError indicates the data row count exceeds the configured cap.
type TooManyRowsError struct {
	Limit  int
	Actual int
}

func (e *TooManyRowsError) Error() string {
	return fmt.Sprintf("csv row limit exceeded: limit=%d, actual=%d", e.Limit, e.Actual)
}

// RequiredFieldError indicates a field is empty or whitespace-only.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// InvalidFormatError indicates a field value does not match its expected shape.
type InvalidFormatError struct {
	Field string
	Value string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s has invalid format: %q", e.Field, e.Value)
}

// RowValidationError aggregates every field failure of a single row.
type RowValidationError struct {
	Row    int
	Fields []error
}

func (e *RowValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, err := range e.Fields {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
