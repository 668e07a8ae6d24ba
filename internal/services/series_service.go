package services

import (
	"context"
	"fmt"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/analytics"
	"github.com/soltixdb/homedash/internal/analytics/anomaly"
	"github.com/soltixdb/homedash/internal/downsampling"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/models"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/utils"
)

// SeriesOptions controls post-processing of raw chart lines
type SeriesOptions struct {
	Downsampling     string
	Threshold        int
	Anomaly          string
	AnomalyThreshold float64
}

// SeriesService builds raw per-series chart lines
type SeriesService struct {
	logger *logging.Logger
	store  *readings.Store
}

// NewSeriesService creates a new SeriesService
func NewSeriesService(logger *logging.Logger, store *readings.Store) *SeriesService {
	return &SeriesService{
		logger: logger,
		store:  store,
	}
}

// Series returns one time-ordered line per selected series. Anomalies are
// detected on the full line before it is downsampled.
func (s *SeriesService) Series(ctx context.Context, req aggregation.Request, opts SeriesOptions) (*models.SeriesResponse, error) {
	mode, err := downsampling.ParseMode(opts.Downsampling)
	if err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}
	algorithm := opts.Anomaly
	if algorithm == "none" {
		algorithm = ""
	}
	if algorithm != "" {
		if _, err := anomaly.GetDetector(algorithm); err != nil {
			return nil, NewServiceError(CodeInvalidRequest, err.Error())
		}
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = utils.DefaultSeriesThreshold
	}

	req, err = req.Normalize(s.store)
	if err != nil {
		return nil, classify(err)
	}
	series, missing := aggregation.ResolveSeries(s.store.Schema(), req)
	rows := aggregation.Filter(s.store, req)

	resp := &models.SeriesResponse{
		Start:   req.Start,
		End:     req.End,
		NoData:  len(rows) == 0,
		Series:  make([]models.SeriesData, 0, len(series)),
		Missing: missing,
	}

	for _, k := range series {
		line := make(analytics.TimeSeriesData, 0, len(rows))
		for _, r := range rows {
			if v, ok := r.Value(k); ok {
				line = append(line, analytics.TimeSeriesPoint{Time: r.Time, Value: v})
			}
		}

		data := models.SeriesData{
			Name:          k.Name(),
			Room:          k.Room,
			Metric:        k.Metric,
			Unit:          k.Metric.Unit(),
			OriginalCount: len(line),
		}

		if algorithm != "" {
			cfg := anomaly.DefaultConfig()
			if opts.AnomalyThreshold > 0 {
				cfg.Threshold = opts.AnomalyThreshold
			}
			found, err := anomaly.Detect(algorithm, k.Name(), line, cfg)
			if err != nil {
				return nil, classify(fmt.Errorf("anomaly detection on %s: %w", k.Name(), err))
			}
			data.Anomalies = found
		}

		points, used, err := downsampling.Apply(line, mode, threshold)
		if err != nil {
			return nil, NewServiceError(CodeInvalidRequest, err.Error())
		}
		data.Points = points
		data.Downsampling = string(used)

		if used != downsampling.ModeNone {
			logging.FromContext(ctx).Debug("Series downsampled",
				"series", k.Name(),
				"mode", used,
				"from", len(line),
				"to", len(points))
		}
		resp.Series = append(resp.Series, data)
	}
	return resp, nil
}
