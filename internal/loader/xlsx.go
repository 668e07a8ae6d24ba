package loader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

func readXLSX(ctx context.Context, r io.Reader, sheet string) ([]string, []record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	// Raw values keep date cells as serials instead of locale formatted strings.
	all, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Leading empty rows are skipped; the first non-empty row is the header.
	start := 0
	for start < len(all) && blank(all[start]) {
		start++
	}
	if start == len(all) {
		return nil, nil, ErrEmptyFile
	}

	header := make([]string, len(all[start]))
	for i, h := range all[start] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]record, 0, len(all)-start-1)
	for i := start + 1; i < len(all); i++ {
		cells := make([]string, len(header))
		copy(cells, all[i])
		rows = append(rows, record{cells: cells, line: i + 1})
	}
	return header, rows, nil
}
