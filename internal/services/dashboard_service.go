package services

import (
	"context"
	"sort"
	"time"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/models"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/utils"
)

// DashboardService answers the dashboard, KPI, recent rows and schema endpoints
type DashboardService struct {
	logger *logging.Logger
	store  *readings.Store
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(logger *logging.Logger, store *readings.Store) *DashboardService {
	return &DashboardService{
		logger: logger,
		store:  store,
	}
}

// Dashboard computes buckets and KPIs for the request and adds the humidity
// share of every selected room
func (s *DashboardService) Dashboard(ctx context.Context, req aggregation.Request) (*models.DashboardResponse, error) {
	start := time.Now()

	result, err := aggregation.Compute(s.store, req)
	if err != nil {
		return nil, classify(err)
	}

	logging.FromContext(ctx).Debug("Dashboard computed",
		"rows", result.RowCount,
		"buckets", len(result.Buckets),
		"granularity", result.Granularity,
		"latency_ms", time.Since(start).Milliseconds())

	return &models.DashboardResponse{
		Result:        result,
		HumidityShare: HumidityShares(result.KPIs),
	}, nil
}

// KPIs computes the headline figures only
func (s *DashboardService) KPIs(ctx context.Context, req aggregation.Request) (*models.KPIResponse, error) {
	req, err := req.Normalize(s.store)
	if err != nil {
		return nil, classify(err)
	}
	series, missing := aggregation.ResolveSeries(s.store.Schema(), req)
	rows := aggregation.Filter(s.store, req)

	return &models.KPIResponse{
		Start:    req.Start,
		End:      req.End,
		RowCount: len(rows),
		NoData:   len(rows) == 0,
		KPIs:     aggregation.Summarize(rows, series),
		Missing:  missing,
	}, nil
}

// Recent returns the last limit filtered rows with the selected series values
func (s *DashboardService) Recent(ctx context.Context, req aggregation.Request, limit int) (*models.RecentResponse, error) {
	req, err := req.Normalize(s.store)
	if err != nil {
		return nil, classify(err)
	}
	if limit <= 0 {
		limit = utils.DefaultRecentRows
	}
	if limit > utils.MaxRecentRows {
		limit = utils.MaxRecentRows
	}

	series, _ := aggregation.ResolveSeries(s.store.Schema(), req)
	rows := aggregation.Filter(s.store, req)
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	resp := &models.RecentResponse{
		Series: make([]string, len(series)),
		Rows:   make([]models.RecentRow, len(rows)),
		Count:  len(rows),
		NoData: len(rows) == 0,
	}
	for i, k := range series {
		resp.Series[i] = k.Name()
	}
	for i, r := range rows {
		values := make(map[string]*float64, len(series))
		for _, k := range series {
			if v, ok := r.Value(k); ok {
				values[k.Name()] = utils.Float64Ptr(v)
			} else {
				values[k.Name()] = nil
			}
		}
		resp.Rows[i] = models.RecentRow{Time: r.Time, Values: values}
	}
	return resp, nil
}

// Schema describes the loaded dataset
func (s *DashboardService) Schema() *models.SchemaResponse {
	schema := s.store.Schema()

	resp := &models.SchemaResponse{
		Source:          s.store.Source(),
		TimestampColumn: schema.TimestampColumn,
		Rooms:           schema.Rooms(),
		Stats:           s.store.Stats(),
	}
	for _, m := range readings.AllMetrics() {
		resp.Metrics = append(resp.Metrics, models.MetricInfo{Name: m, Unit: m.Unit(), Reducer: m.Reducer()})
	}
	for _, k := range schema.Series() {
		column, _ := schema.ColumnName(k)
		resp.Series = append(resp.Series, models.SeriesInfo{
			Name:   k.Name(),
			Room:   k.Room,
			Metric: k.Metric,
			Column: column,
		})
	}
	if first, last, ok := s.store.Span(); ok {
		resp.First, resp.Last = &first, &last
	}
	return resp
}

// Store returns the dataset the service reads
func (s *DashboardService) Store() *readings.Store {
	return s.store
}

// HumidityShares splits 100% into each room's mean humidity and the rest, in
// room order. Rooms without humidity data are left out.
func HumidityShares(kpis map[string]aggregation.KPI) []models.HumidityShare {
	shares := []models.HumidityShare{}
	for _, k := range kpis {
		if k.Metric != readings.MetricHumidity || k.NoData || k.Mean == nil {
			continue
		}
		mean := utils.Round(*k.Mean, utils.DisplayPrecision)
		shares = append(shares, models.HumidityShare{
			Room:  k.Room,
			Mean:  mean,
			Other: utils.Round(100-mean, utils.DisplayPrecision),
		})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Room < shares[j].Room })
	return shares
}
