package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestParseValidFile(t *testing.T) {
	csv := "name,address,phone\n" +
		"General Hospital,1 Main St,+1 (212) 555-0100\n" +
		"City Clinic,2 Oak Ave,212-555-0199\n"

	rows, err := Parse([]byte(csv), 20)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Row != 1 || rows[1].Row != 2 {
		t.Errorf("rows must be numbered from 1: got %d, %d", rows[0].Row, rows[1].Row)
	}
	if rows[0].Fields["name"] != "General Hospital" {
		t.Errorf("unexpected name: %q", rows[0].Fields["name"])
	}
	if rows[1].Fields["phone"] != "212-555-0199" {
		t.Errorf("unexpected phone: %q", rows[1].Fields["phone"])
	}
}

func TestParseIgnoresExtraColumns(t *testing.T) {
	csv := "name,address,phone,country\nGeneral Hospital,1 Main St,2125550100,US\n"

	rows, err := Parse([]byte(csv), 20)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rows[0].Fields["address"] != "1 Main St" {
		t.Errorf("unexpected address: %q", rows[0].Fields["address"])
	}
}

func TestParseStripsBOM(t *testing.T) {
	csv := "\xef\xbb\xbfname,address,phone\nGeneral Hospital,1 Main St,2125550100\n"

	rows, err := Parse([]byte(csv), 20)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rows[0].Fields["name"] != "General Hospital" {
		t.Errorf("BOM not stripped from header: %q", rows[0].Fields["name"])
	}
}

func TestParseMissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		missing string
	}{
		{"no phone header", "name,address\nA,B\n", "phone"},
		{"no headers at all", "", "name"},
		{"case sensitive match", "Name,Address,Phone\nA,B,C\n", "name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.csv), 20)
			var missingErr *MissingColumnsError
			if !errors.As(err, &missingErr) {
				t.Fatalf("expected MissingColumnsError, got %v", err)
			}
			if !strings.Contains(missingErr.Error(), tc.missing) {
				t.Errorf("error %q does not mention column %q", missingErr.Error(), tc.missing)
			}
		})
	}
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse([]byte("name,address,phone\n"), 20)
	var emptyErr *EmptyFileError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyFileError, got %v", err)
	}
}

func TestParseTooManyRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,address,phone\n")
	for i := 0; i < 21; i++ {
		sb.WriteString("Hospital,Somewhere,2125550100\n")
	}

	_, err := Parse([]byte(sb.String()), 20)
	var tooMany *TooManyRowsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected TooManyRowsError, got %v", err)
	}
	if tooMany.Limit != 20 || tooMany.Actual != 21 {
		t.Errorf("unexpected limit/actual: %d/%d", tooMany.Limit, tooMany.Actual)
	}
}

func TestParsePadsShortRows(t *testing.T) {
	csv := "name,address,phone\nGeneral Hospital,1 Main St\n"

	rows, err := Parse([]byte(csv), 20)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if rows[0].Fields["phone"] != "" {
		t.Errorf("missing cell should be empty, got %q", rows[0].Fields["phone"])
	}
}
