package ingest

import (
	"regexp"
	"strings"

	"github.com/timmy/medloader/internal/domain"
)

// Phone values may contain digits, spaces, parentheses and dashes, with an
// optional leading plus, and must carry at least this many digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s]+$`)

const minPhoneDigits = 7

// ValidateRow checks one RawRow and produces a HospitalRecord or a
// RowValidationError collecting every failed field. Validation of one row
// never depends on any other row.
func ValidateRow(raw domain.RawRow) (domain.HospitalRecord, error) {
	name := strings.TrimSpace(raw.Fields["name"])
	address := strings.TrimSpace(raw.Fields["address"])
	phone := strings.TrimSpace(raw.Fields["phone"])

	var fields []error
	if name == "" {
		fields = append(fields, &RequiredFieldError{Field: "name"})
	}
	if address == "" {
		fields = append(fields, &RequiredFieldError{Field: "address"})
	}
	if phone == "" {
		fields = append(fields, &RequiredFieldError{Field: "phone"})
	} else if !validPhone(phone) {
		fields = append(fields, &InvalidFormatError{Field: "phone", Value: phone})
	}

	if len(fields) > 0 {
		return domain.HospitalRecord{}, &RowValidationError{Row: raw.Row, Fields: fields}
	}

	return domain.HospitalRecord{
		Row:     raw.Row,
		Name:    name,
		Address: address,
		Phone:   phone,
	}, nil
}

func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}
