package models

import (
	"time"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/analytics"
	"github.com/soltixdb/homedash/internal/analytics/anomaly"
	"github.com/soltixdb/homedash/internal/readings"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Source    string `json:"source"`
	Rows      int    `json:"rows"`
}

// MetricInfo describes one supported metric
type MetricInfo struct {
	Name    readings.Metric  `json:"name"`
	Unit    string           `json:"unit"`
	Reducer readings.Reducer `json:"reducer"`
}

// SeriesInfo describes one series present in the dataset
type SeriesInfo struct {
	Name   string          `json:"name"`
	Room   string          `json:"room,omitempty"`
	Metric readings.Metric `json:"metric"`
	Column string          `json:"column"`
}

// SchemaResponse describes the loaded dataset
type SchemaResponse struct {
	Source          string             `json:"source"`
	TimestampColumn string             `json:"timestamp_column"`
	Rooms           []string           `json:"rooms"`
	Metrics         []MetricInfo       `json:"metrics"`
	Series          []SeriesInfo       `json:"series"`
	Stats           readings.LoadStats `json:"stats"`
	First           *time.Time         `json:"first,omitempty"`
	Last            *time.Time         `json:"last,omitempty"`
}

// HumidityShare splits 100% into a room's mean humidity and the rest
type HumidityShare struct {
	Room  string  `json:"room"`
	Mean  float64 `json:"mean"`
	Other float64 `json:"other"`
}

// DashboardResponse is the aggregation result plus the humidity breakdown
type DashboardResponse struct {
	*aggregation.Result
	HumidityShare []HumidityShare `json:"humidity_share"`
}

// KPIResponse carries the headline figures only
type KPIResponse struct {
	Start    time.Time                   `json:"start"`
	End      time.Time                   `json:"end"`
	RowCount int                         `json:"row_count"`
	NoData   bool                        `json:"no_data"`
	KPIs     map[string]aggregation.KPI  `json:"kpis"`
	Missing  []aggregation.MissingSeries `json:"missing,omitempty"`
}

// SeriesData is one raw chart line
type SeriesData struct {
	Name          string                      `json:"name"`
	Room          string                      `json:"room,omitempty"`
	Metric        readings.Metric             `json:"metric"`
	Unit          string                      `json:"unit"`
	Points        []analytics.TimeSeriesPoint `json:"points"`
	OriginalCount int                         `json:"original_count"`
	Downsampling  string                      `json:"downsampling"`
	Anomalies     []anomaly.Anomaly           `json:"anomalies,omitempty"`
}

// SeriesResponse carries raw chart lines for the selected range
type SeriesResponse struct {
	Start   time.Time                   `json:"start"`
	End     time.Time                   `json:"end"`
	NoData  bool                        `json:"no_data"`
	Series  []SeriesData                `json:"series"`
	Missing []aggregation.MissingSeries `json:"missing,omitempty"`
}

// RecentRow is one row of the recent readings table. Missing values are null.
type RecentRow struct {
	Time   time.Time           `json:"time"`
	Values map[string]*float64 `json:"values"`
}

// RecentResponse is the tail of the filtered rows, oldest first
type RecentResponse struct {
	Series []string    `json:"series"`
	Rows   []RecentRow `json:"rows"`
	Count  int         `json:"count"`
	NoData bool        `json:"no_data"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
