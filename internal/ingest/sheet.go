package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// decodeSheet reads every worksheet of a workbook. The first non-empty row of a
// sheet names the columns; each following row becomes one map. Rows from all
// sheets are returned in order as a single list.
func decodeSheet(content []byte) (any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	items := []any{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		var header []string
		for _, row := range rows {
			if header == nil {
				if blankRow(row) {
					continue
				}
				header = make([]string, len(row))
				for i, cell := range row {
					header[i] = strings.TrimSpace(cell)
				}
				continue
			}
			if blankRow(row) {
				continue
			}
			item := make(map[string]any, len(header))
			for i, cell := range row {
				if i >= len(header) || header[i] == "" {
					continue
				}
				if cell = strings.TrimSpace(cell); cell != "" {
					item[header[i]] = cell
				}
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
