// Package export writes a filtered row set back out as CSV or XLSX. Cells are
// passed through exactly as they were read.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet XLSX exports are written to
const SheetName = "Sheet1"

// Write writes header and rows in the given format
func Write(w io.Writer, format loader.Format, header []string, rows []readings.Reading) error {
	switch format {
	case loader.FormatCSV:
		return WriteCSV(w, header, rows)
	case loader.FormatXLSX:
		return WriteXLSX(w, header, rows)
	default:
		return fmt.Errorf("%w: %q", loader.ErrUnsupportedFormat, format)
	}
}

// WriteCSV writes a CSV with the original header and cells
func WriteCSV(w io.Writer, header []string, rows []readings.Reading) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(pad(r.Raw, len(header))); err != nil {
			return fmt.Errorf("failed to write line %d: %w", r.Line, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return bw.Flush()
}

// WriteXLSX writes a single-sheet workbook. Cells are written as text so that
// values round-trip unmodified.
func WriteXLSX(w io.Writer, header []string, rows []readings.Reading) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet writer: %w", err)
	}

	writeRow := func(n int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return sw.SetRow(cell, values)
	}

	if err := writeRow(1, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		if err := writeRow(i+2, pad(r.Raw, len(header))); err != nil {
			return fmt.Errorf("failed to write line %d: %w", r.Line, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ContentType returns the MIME type of a format
func ContentType(format loader.Format) string {
	if format == loader.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName names a download of the given range, e.g.
// filtered_data_20240101_20240131.csv
func FileName(format loader.Format, start, end time.Time) string {
	return fmt.Sprintf("filtered_data_%s_%s.%s", start.Format("20060102"), end.Format("20060102"), format)
}

// pad extends short rows so every line has one cell per header column
func pad(cells []string, n int) []string {
	if len(cells) >= n {
		return cells
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}
