package importer

import (
	"sort"
	"strings"

	apperrors "voter-canvass-backend/pkg/errors"
)

// Mapping is a validated column mapping: canonical field to column index in
// the session's detected columns. Unmapped fields are simply absent.
type Mapping map[Field]int

// ValidateMapping checks a user-supplied mapping against the session's
// detected columns. Column names are matched case-insensitively and trimmed.
// Every violation is accumulated into one report rather than failing on the
// first.
func ValidateMapping(raw map[string]string, columns []string) (Mapping, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	verr := &apperrors.MappingValidationError{}
	mapping := make(Mapping, len(raw))

	for name, column := range raw {
		field := Field(strings.ToLower(strings.TrimSpace(name)))
		if !allFields[field] {
			verr.UnknownFields = append(verr.UnknownFields, name)
			continue
		}

		column = strings.TrimSpace(column)
		if column == "" {
			continue // field not being imported
		}

		idx, ok := index[strings.ToLower(column)]
		if !ok {
			verr.UnknownColumns = append(verr.UnknownColumns, apperrors.UnknownColumnError{
				Field:  string(field),
				Column: column,
			})
			continue
		}
		mapping[field] = idx
	}

	for _, field := range requiredFields {
		if _, ok := mapping[field]; !ok {
			verr.MissingFields = append(verr.MissingFields, string(field))
		}
	}

	if !verr.Empty() {
		// Map iteration order is random; keep the report stable.
		sort.Strings(verr.UnknownFields)
		sort.Slice(verr.UnknownColumns, func(i, j int) bool {
			return verr.UnknownColumns[i].Field < verr.UnknownColumns[j].Field
		})
		return nil, verr
	}
	return mapping, nil
}
