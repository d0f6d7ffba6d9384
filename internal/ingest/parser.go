package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/timmy/medloader/internal/domain"
)

// Required header columns. Matching is exact and case-sensitive; extra
// columns are carried through and ignored downstream.
var requiredColumns = []string{"name", "address", "phone"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse turns raw CSV bytes into ordered RawRows.
//
// The first line must be a header containing at least the required columns.
// Data rows are numbered from 1. Parse fails with MissingColumnsError,
// EmptyFileError or TooManyRowsError; it performs no I/O and never reaches
// the upstream API.
func Parse(raw []byte, limit int) ([]domain.RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MissingColumnsError{Columns: requiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int, len(header))
	for i, name := range header {
		headerMap[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []domain.RawRow
	for rowNo := 1; ; rowNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rowNo, err)
		}

		fields := make(map[string]string, len(headerMap))
		for name, idx := range headerMap {
			if idx < len(record) {
				fields[name] = record[idx]
			} else {
				fields[name] = ""
			}
		}
		rows = append(rows, domain.RawRow{Row: rowNo, Fields: fields})
	}

	if len(rows) == 0 {
		return nil, &EmptyFileError{}
	}
	if len(rows) > limit {
		return nil, &TooManyRowsError{Limit: limit, Actual: len(rows)}
	}

	return rows, nil
}
