package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apperrors "voter-canvass-backend/pkg/errors"

	"github.com/xuri/excelize/v2"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the raw upload into a Table. Ragged rows are padded or
// truncated to the header width with a warning instead of aborting the
// whole parse.
func (p *Parser) Parse(data []byte, format Format) (*Table, error) {
	var (
		raw [][]string
		err error
	)

	switch format {
	case FormatCSV:
		raw, err = p.readCSV(data)
	case FormatXLSX:
		raw, err = p.readXLSX(data)
	default:
		return nil, apperrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(raw) < 2 {
		return nil, apperrors.ErrEmptyFile
	}

	table := &Table{Columns: normalizeHeader(raw[0])}
	width := len(table.Columns)

	for i, row := range raw[1:] {
		if len(row) != width {
			table.Warnings = append(table.Warnings,
				fmt.Sprintf("row %d has %d fields, expected %d", i+1, len(row), width))
		}
		table.Rows = append(table.Rows, fitRow(row, width))
	}

	return table, nil
}

func (p *Parser) readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows handled by the caller

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (p *Parser) readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ErrEmptyFile
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// normalizeHeader trims header cells, names blank ones and disambiguates
// duplicates so a mapping onto them stays well-defined. A generated suffix
// may itself collide with a literal header cell, so the counter keeps
// bumping until the name is unseen.
func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))

	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if key := strings.ToLower(name); seen[key] {
			base := name
			for n := 2; ; n++ {
				name = fmt.Sprintf("%s (%d)", base, n)
				if !seen[strings.ToLower(name)] {
					break
				}
			}
		}
		seen[strings.ToLower(name)] = true
		columns[i] = name
	}
	return columns
}

func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	fitted := make([]string, width)
	copy(fitted, row)
	return fitted
}
