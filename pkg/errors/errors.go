package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file contains no data rows")
	ErrSessionNotFound   = errors.New("import session not found")
	ErrSessionConsumed   = errors.New("import session already consumed")
	ErrCommitTimeout     = errors.New("import commit timed out")
	ErrInvalidAdmin      = errors.New("invalid admin user")
)

// UnknownColumnError reports one mapping entry that points at a column the
// uploaded file does not have.
type UnknownColumnError struct {
	Field  string `json:"field"`
	Column string `json:"column"`
}

func (e UnknownColumnError) Error() string {
	return fmt.Sprintf("field '%s' mapped to unknown column '%s'", e.Field, e.Column)
}

// MissingRequiredFieldsError lists every required field left unmapped.
type MissingRequiredFieldsError struct {
	Fields []string
}

func (e MissingRequiredFieldsError) Error() string {
	return fmt.Sprintf("required fields not mapped: %s", strings.Join(e.Fields, ", "))
}

// MappingValidationError aggregates every violation found in a proposed
// column mapping so the client can correct the whole mapping in one pass
// instead of a trial-and-error loop.
type MappingValidationError struct {
	UnknownFields  []string             `json:"unknown_fields,omitempty"`
	UnknownColumns []UnknownColumnError `json:"unknown_columns,omitempty"`
	MissingFields  []string             `json:"missing_required_fields,omitempty"`
}

func (e *MappingValidationError) Error() string {
	parts := make([]string, 0, len(e.UnknownColumns)+2)
	if len(e.UnknownFields) > 0 {
		parts = append(parts, "unknown target fields: "+strings.Join(e.UnknownFields, ", "))
	}
	for _, u := range e.UnknownColumns {
		parts = append(parts, u.Error())
	}
	if len(e.MissingFields) > 0 {
		parts = append(parts, MissingRequiredFieldsError{Fields: e.MissingFields}.Error())
	}
	return "invalid column mapping: " + strings.Join(parts, "; ")
}

func (e *MappingValidationError) Empty() bool {
	return len(e.UnknownFields) == 0 && len(e.UnknownColumns) == 0 && len(e.MissingFields) == 0
}

// RowError records a single failed row during commit. Row is the 1-based
// index of the data row in the uploaded file (the header is not counted).
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}
