package tabular

import (
	"path/filepath"
	"strings"

	apperrors "voter-canvass-backend/pkg/errors"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat decides how to parse an upload from its filename extension,
// falling back to the declared content type.
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatXLSX, nil
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "text/csv", "application/csv":
		return FormatCSV, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return FormatXLSX, nil
	}

	return "", apperrors.ErrUnsupportedFormat
}

// Table is a parsed upload: a header row plus data rows normalized to the
// header width.
type Table struct {
	Columns  []string
	Rows     [][]string
	Warnings []string
}

// Preview returns the first n rows as column-keyed maps for client display.
func (t *Table) Preview(n int) []map[string]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	preview := make([]map[string]string, 0, n)
	for _, row := range t.Rows[:n] {
		m := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			m[col] = row[i]
		}
		preview = append(preview, m)
	}
	return preview
}
