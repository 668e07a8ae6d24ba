package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/readings"
	"github.com/soltixdb/homedash/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeCSV = `AC_Timestamp,Temperature_LivingRoom,Humidity_LivingRoom,Temperature_Kitchen,Humidity_Kitchen,Energy_Consumption
2024-01-01 06:00:00,20,40,22,50,1
2024-01-01 18:00:00,22,44,24,54,2
2024-01-02 06:00:00,21,,23,52,3
2024-01-08 06:00:00,19,42,,56,4
2024-02-01 06:00:00,18,46,20,58,5
`

func newStore(t *testing.T, data string) *readings.Store {
	t.Helper()
	store, err := loader.LoadReader(context.Background(), "home.csv", strings.NewReader(data), loader.FormatCSV,
		loader.Options{Logger: logging.Nop()})
	require.NoError(t, err)
	return store
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var se *ServiceError
	require.True(t, errors.As(err, &se), "expected ServiceError, got %v", err)
	return se.Code
}

func TestDashboard(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))

	resp, err := svc.Dashboard(context.Background(), aggregation.Request{
		Start: day(1),
		End:   day(31),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.RowCount)
	assert.Len(t, resp.Buckets, 3)
	require.Len(t, resp.HumidityShare, 2)
	assert.Equal(t, "Kitchen", resp.HumidityShare[0].Room)
	assert.InDelta(t, 53, resp.HumidityShare[0].Mean, 1e-9)
	assert.InDelta(t, 47, resp.HumidityShare[0].Other, 1e-9)
	assert.Equal(t, "LivingRoom", resp.HumidityShare[1].Room)
	assert.InDelta(t, 42, resp.HumidityShare[1].Mean, 1e-9)

	energy := resp.KPIs["energy"]
	require.NotNil(t, energy.Sum)
	assert.InDelta(t, 10, *energy.Sum, 1e-9)
}

func TestDashboard_InvalidRange(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	_, err := svc.Dashboard(context.Background(), aggregation.Request{Start: day(10), End: day(1)})
	assert.Equal(t, CodeInvalidRange, codeOf(t, err))
}

func TestDashboard_NoDataHasEmptyShare(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	resp, err := svc.Dashboard(context.Background(), aggregation.Request{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, resp.NoData)
	assert.NotNil(t, resp.HumidityShare)
	assert.Empty(t, resp.HumidityShare)
}

func TestKPIs(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	resp, err := svc.KPIs(context.Background(), aggregation.Request{
		Rooms:   []string{"LivingRoom", "Attic"},
		Metrics: []readings.Metric{readings.MetricTemperature},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.RowCount)
	assert.Contains(t, resp.KPIs, "temperature.LivingRoom")
	assert.NotContains(t, resp.KPIs, "temperature.Kitchen")
	require.Len(t, resp.Missing, 1)
	assert.Equal(t, "Attic", resp.Missing[0].Room)
}

func TestRecent(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	resp, err := svc.Recent(context.Background(), aggregation.Request{
		Rooms: []string{"LivingRoom"},
	}, 2)
	require.NoError(t, err)

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC), resp.Rows[0].Time)
	assert.Equal(t, time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC), resp.Rows[1].Time)
	assert.Contains(t, resp.Series, "humidity.LivingRoom")

	v := resp.Rows[0].Values["temperature.LivingRoom"]
	require.NotNil(t, v)
	assert.Equal(t, 19.0, *v)
}

func TestRecent_NullForMissingValue(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	resp, err := svc.Recent(context.Background(), aggregation.Request{Start: day(2), End: day(2).Add(23 * time.Hour)}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)

	v, ok := resp.Rows[0].Values["humidity.LivingRoom"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSchema(t *testing.T) {
	svc := NewDashboardService(logging.Nop(), newStore(t, homeCSV))
	resp := svc.Schema()

	assert.Equal(t, "home.csv", resp.Source)
	assert.Equal(t, "AC_Timestamp", resp.TimestampColumn)
	assert.Equal(t, []string{"Kitchen", "LivingRoom"}, resp.Rooms)
	assert.Len(t, resp.Metrics, 3)
	assert.Len(t, resp.Series, 5)
	assert.Equal(t, 5, resp.Stats.Loaded)
	require.NotNil(t, resp.First)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), *resp.First)
}

func TestSeries(t *testing.T) {
	svc := NewSeriesService(logging.Nop(), newStore(t, homeCSV))
	resp, err := svc.Series(context.Background(), aggregation.Request{
		Rooms:   []string{"Kitchen"},
		Metrics: []readings.Metric{readings.MetricTemperature},
	}, SeriesOptions{})
	require.NoError(t, err)

	require.Len(t, resp.Series, 1)
	line := resp.Series[0]
	assert.Equal(t, "temperature.Kitchen", line.Name)
	assert.Equal(t, "°C", line.Unit)
	assert.Equal(t, 4, line.OriginalCount, "the missing value is skipped")
	assert.Len(t, line.Points, 4)
	assert.Equal(t, "none", line.Downsampling)
}

func TestSeries_DownsamplingAndAnomalies(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("AC_Timestamp,Temperature_LivingRoom\n")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		v := 20.0 + float64(i%3)*0.1
		if i == 120 {
			v = 45
		}
		fmt.Fprintf(&sb, "%s,%.1f\n", base.Add(time.Duration(i)*time.Hour).Format("2006-01-02 15:04:05"), v)
	}

	svc := NewSeriesService(logging.Nop(), newStore(t, sb.String()))
	resp, err := svc.Series(context.Background(), aggregation.Request{}, SeriesOptions{
		Downsampling: "lttb",
		Threshold:    50,
		Anomaly:      "zscore",
	})
	require.NoError(t, err)
	require.Len(t, resp.Series, 1)

	line := resp.Series[0]
	assert.Equal(t, 200, line.OriginalCount)
	assert.Len(t, line.Points, 50)
	assert.Equal(t, "lttb", line.Downsampling)
	require.NotEmpty(t, line.Anomalies)
	assert.Equal(t, 45.0, line.Anomalies[0].Value)
}

func TestSeries_InvalidOptions(t *testing.T) {
	svc := NewSeriesService(logging.Nop(), newStore(t, homeCSV))

	_, err := svc.Series(context.Background(), aggregation.Request{}, SeriesOptions{Downsampling: "fft"})
	assert.Equal(t, CodeInvalidRequest, codeOf(t, err))

	_, err = svc.Series(context.Background(), aggregation.Request{}, SeriesOptions{Anomaly: "dbscan"})
	assert.Equal(t, CodeInvalidRequest, codeOf(t, err))

	_, err = svc.Series(context.Background(), aggregation.Request{Granularity: "hourly"}, SeriesOptions{})
	assert.Equal(t, CodeInvalidRequest, codeOf(t, err))
}

func TestExport(t *testing.T) {
	store := newStore(t, homeCSV)
	svc := NewExportService(logging.Nop(), store)

	res, err := svc.Export(context.Background(), aggregation.Request{Start: day(1), End: day(2).Add(23 * time.Hour)}, "")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, "filtered_data_20240101_20240102.csv", res.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Split(homeCSV, "\n")[0], lines[0])
	assert.Equal(t, "2024-01-02 06:00:00,21,,23,52,3", lines[3])
}

func TestExport_XLSXAndBadFormat(t *testing.T) {
	svc := NewExportService(logging.Nop(), newStore(t, homeCSV))

	res, err := svc.Export(context.Background(), aggregation.Request{}, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Rows)
	assert.True(t, strings.HasSuffix(res.FileName, ".xlsx"))
	assert.Equal(t, "PK", string(res.Data[:2]), "xlsx is a zip container")

	_, err = svc.Export(context.Background(), aggregation.Request{}, "pdf")
	assert.Equal(t, CodeInvalidRequest, codeOf(t, err))
}

func TestReportService(t *testing.T) {
	store := newStore(t, homeCSV)
	svc := NewReportService(logging.Nop(), report.NewBuilder(store, time.UTC, ""))

	rep, err := svc.Daily(context.Background(), "2024-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, "LivingRoom", rep.Room)
	require.NotNil(t, rep.TotalEnergy)
	assert.InDelta(t, 3, *rep.TotalEnergy, 1e-9)

	rep, err = svc.Daily(context.Background(), "2024-01-01", "Kitchen")
	require.NoError(t, err)
	require.NotNil(t, rep.MeanTemperature)
	assert.InDelta(t, 23, *rep.MeanTemperature, 1e-9)

	_, err = svc.Daily(context.Background(), "2024-13-01", "")
	assert.Equal(t, CodeInvalidRequest, codeOf(t, err))

	_, err = svc.Daily(context.Background(), "", "Attic")
	assert.Equal(t, CodeNotFound, codeOf(t, err))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.Equal(t, CodeInvalidRange, classify(fmt.Errorf("x: %w", aggregation.ErrInvalidRange)).Code)
	assert.Equal(t, CodeInvalidRequest, classify(readings.ErrUnknownMetric).Code)
	assert.Equal(t, CodeInternal, classify(errors.New("disk on fire")).Code)

	se := NewServiceError(CodeNotFound, "gone")
	assert.Same(t, se, classify(fmt.Errorf("wrapped: %w", se)))
}
