package vocabulary

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportConfig describes where the words live in a spreadsheet.
type ImportConfig struct {
	SheetName        string
	WordColumn       string
	DefinitionColumn string
	SkipHeader       bool
}

// DefaultImportConfig reads words from column A and definitions from column B of Sheet1.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:        "Sheet1",
		WordColumn:       "A",
		DefinitionColumn: "B",
		SkipHeader:       true,
	}
}

// ImportSpreadsheet reads an xlsx sheet into a table with consecutive indices.
// Rows with an empty word are skipped.
func ImportSpreadsheet(path string, cfg ImportConfig) (Table, error) {
	wordCol, err := excelize.ColumnNameToNumber(cfg.WordColumn)
	if err != nil {
		return nil, fmt.Errorf("word column %q: %w", cfg.WordColumn, err)
	}
	definitionCol := 0
	if cfg.DefinitionColumn != "" {
		if definitionCol, err = excelize.ColumnNameToNumber(cfg.DefinitionColumn); err != nil {
			return nil, fmt.Errorf("definition column %q: %w", cfg.DefinitionColumn, err)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenFile(%s) > %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := f.GetRows(cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", cfg.SheetName, err)
	}
	if cfg.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	var table Table
	for _, row := range rows {
		word := strings.TrimSpace(cell(row, wordCol))
		if word == "" {
			continue
		}
		table = append(table, Entry{
			Word:       word,
			Index:      len(table),
			Definition: strings.TrimSpace(cell(row, definitionCol)),
		})
	}
	return table, nil
}

// cell returns the value at a 1-based column, or "" when the row is shorter.
func cell(row []string, column int) string {
	if column < 1 || column > len(row) {
		return ""
	}
	return row[column-1]
}
