package services

import (
	"bytes"
	"context"
	"time"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/export"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/readings"
)

// ExportResult is a rendered download
type ExportResult struct {
	FileName    string
	ContentType string
	Rows        int
	Data        []byte
}

// ExportService renders the filtered row set as a file
type ExportService struct {
	logger *logging.Logger
	store  *readings.Store
}

// NewExportService creates a new ExportService
func NewExportService(logger *logging.Logger, store *readings.Store) *ExportService {
	return &ExportService{
		logger: logger,
		store:  store,
	}
}

// Export writes every reading in the request's time range with the original
// header and cells. Room and metric selections do not drop columns.
func (s *ExportService) Export(ctx context.Context, req aggregation.Request, format string) (*ExportResult, error) {
	start := time.Now()

	f := loader.FormatCSV
	if format != "" {
		parsed, err := loader.ParseFormat(format)
		if err != nil {
			return nil, classify(err)
		}
		f = parsed
	}

	req, err := req.Normalize(s.store)
	if err != nil {
		return nil, classify(err)
	}
	rows := aggregation.Filter(s.store, req)

	var buf bytes.Buffer
	if err := export.Write(&buf, f, s.store.Schema().Header, rows); err != nil {
		s.logger.Error("Export failed", "format", f, "rows", len(rows), "error", err)
		return nil, classify(err)
	}

	logging.FromContext(ctx).Info("Export rendered",
		"format", f,
		"rows", len(rows),
		"bytes", buf.Len(),
		"latency_ms", time.Since(start).Milliseconds())

	return &ExportResult{
		FileName:    export.FileName(f, req.Start, req.End),
		ContentType: export.ContentType(f),
		Rows:        len(rows),
		Data:        buf.Bytes(),
	}, nil
}
