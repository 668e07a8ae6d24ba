// Package loader reads the sensor export (CSV or XLSX) into an immutable
// readings.Store. Rows with unparseable timestamps are dropped and counted;
// non-numeric metric cells become absent values.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/utils"
)

// Format is the on-disk format of a dataset
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported data format")
	ErrEmptyFile         = errors.New("data file is empty")
	ErrNoTimestampColumn = errors.New("no timestamp column found")
	ErrNoParseableRows   = errors.New("no row has a parseable timestamp")
)

// maxLoggedDrops bounds how many dropped line numbers go into the warning log
const maxLoggedDrops = 20

// Options control how a dataset is read
type Options struct {
	Format          Format         // empty: inferred from the file extension
	TimestampColumn string         // default AC_Timestamp
	Location        *time.Location // zone for timestamps without offset, default UTC
	Sheet           string         // XLSX sheet, default first sheet
	Logger          *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.TimestampColumn == "" {
		o.TimestampColumn = utils.DefaultTimestampColumn
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = logging.Global()
	}
	return o
}

// OptionsFromConfig builds load options from the data section of the config
func OptionsFromConfig(cfg config.DataConfig, logger *logging.Logger) (Options, error) {
	opts := Options{
		TimestampColumn: cfg.TimestampColumn,
		Location:        cfg.Location(),
		Sheet:           cfg.Sheet,
		Logger:          logger,
	}
	if cfg.Format != "" {
		f, err := ParseFormat(cfg.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	return opts, nil
}

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// record is one source row with its 1-based line (or spreadsheet row) number
type record struct {
	cells []string
	line  int
}

// Load reads the dataset at path
func Load(ctx context.Context, path string, opts Options) (*readings.Store, error) {
	format := opts.Format
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	return load(ctx, path, file, format, opts)
}

// LoadReader reads a dataset from r. name identifies the source in the store.
func LoadReader(ctx context.Context, name string, r io.Reader, format Format, opts Options) (*readings.Store, error) {
	return load(ctx, name, r, format, opts)
}

func load(ctx context.Context, name string, r io.Reader, format Format, opts Options) (*readings.Store, error) {
	opts = opts.withDefaults()

	var (
		header []string
		rows   []record
		err    error
	)
	switch format {
	case FormatCSV:
		header, rows, err = readCSV(ctx, r)
	case FormatXLSX:
		header, rows, err = readXLSX(ctx, r, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	store, err := build(ctx, name, header, rows, format, opts)
	if err != nil {
		return nil, err
	}

	stats := store.Stats()
	opts.Logger.Info("Dataset loaded",
		"source", name,
		"format", string(format),
		"rows", stats.Rows,
		"loaded", stats.Loaded,
		"dropped", stats.Dropped,
		"rooms", store.Schema().Rooms())
	return store, nil
}

func build(ctx context.Context, name string, header []string, rows []record, format Format, opts Options) (*readings.Store, error) {
	tsIdx, err := findTimestampColumn(header, opts.TimestampColumn)
	if err != nil {
		return nil, err
	}

	schema, err := readings.NewSchema(header, tsIdx)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	series := schema.Series()

	stats := readings.LoadStats{}
	out := make([]readings.Reading, 0, len(rows))

	for i, rec := range rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(rec.cells) {
			continue
		}
		stats.Rows++

		var cell string
		if tsIdx < len(rec.cells) {
			cell = rec.cells[tsIdx]
		}
		ts, ok := ParseTimestamp(cell, opts.Location)
		if !ok && format == FormatXLSX {
			ts, ok = parseExcelSerial(cell, opts.Location)
			if ok {
				rec.cells[tsIdx] = ts.Format("2006-01-02 15:04:05")
			}
		}
		if !ok {
			stats.Dropped++
			stats.DroppedLines = append(stats.DroppedLines, rec.line)
			continue
		}

		values := make(map[readings.SeriesKey]float64, len(series))
		for _, key := range series {
			idx, _ := schema.Lookup(key.Room, key.Metric)
			if idx >= len(rec.cells) {
				continue
			}
			if v, ok := utils.ParseNumber(rec.cells[idx]); ok {
				values[key] = v
			}
		}

		out = append(out, readings.Reading{
			Time:   ts,
			Line:   rec.line,
			Values: values,
			Raw:    rec.cells,
		})
	}

	if stats.Rows == 0 {
		return nil, fmt.Errorf("%w: header only", ErrEmptyFile)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (%d rows in %s)", ErrNoParseableRows, stats.Rows, name)
	}
	stats.Loaded = len(out)

	if stats.Dropped > 0 {
		lines := stats.DroppedLines
		if len(lines) > maxLoggedDrops {
			lines = lines[:maxLoggedDrops]
		}
		opts.Logger.Warn("Dropped rows with unparseable timestamps",
			"source", name,
			"dropped", stats.Dropped,
			"lines", lines)
	}

	return readings.NewStore(name, schema, out, stats), nil
}

// findTimestampColumn returns the index of the preferred column, else the first
// header containing "timestamp", "time" or "date".
func findTimestampColumn(header []string, preferred string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), preferred) {
			return i, nil
		}
	}
	for i, h := range header {
		l := strings.ToLower(h)
		if strings.Contains(l, "timestamp") || strings.Contains(l, "time") || strings.Contains(l, "date") {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: expected %q", ErrNoTimestampColumn, preferred)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
