package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/readings"
)

func loadCSV(t *testing.T, data string) *readings.Store {
	t.Helper()
	store, err := loader.LoadReader(context.Background(), "test.csv", strings.NewReader(data), loader.FormatCSV,
		loader.Options{Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("failed to load test data: %v", err)
	}
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const homeCSV = `AC_Timestamp,Temperature_LivingRoom,Humidity_LivingRoom,Temperature_Kitchen,Humidity_Kitchen,Energy_Consumption
2024-01-01 06:00:00,20,40,18,50,1
2024-01-01 18:00:00,22,44,20,54,2
2024-01-02 06:00:00,19,,17,52,3
2024-01-08 12:00:00,21,46,,,4
2024-02-01 12:00:00,23,48,21,56,5
2024-12-30 12:00:00,18,42,16,58,6
2025-01-05 12:00:00,17,41,15,57,7
`

func TestCompute_DailyEnergyScenario(t *testing.T) {
	store := loadCSV(t, "AC_Timestamp,Energy_Consumption\n2024-01-01 10:00:00,5\n2024-01-02 10:00:00,7\n")

	result, err := Compute(store, Request{
		Start:       day(2024, 1, 1),
		End:         day(2024, 1, 2).Add(24*time.Hour - time.Nanosecond),
		Granularity: GranularityDaily,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(result.Buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(result.Buckets))
	}
	want := []float64{5, 7}
	for i, b := range result.Buckets {
		v := b.Values["energy"]
		if v.Value == nil || *v.Value != want[i] {
			t.Errorf("bucket %s energy = %v, want %v", b.Label, v.Value, want[i])
		}
	}
	if result.Buckets[0].Label != "2024-01-01" || result.Buckets[1].Label != "2024-01-02" {
		t.Errorf("unexpected labels %s, %s", result.Buckets[0].Label, result.Buckets[1].Label)
	}

	kpi := result.KPIs["energy"]
	if kpi.Sum == nil || *kpi.Sum != 12 {
		t.Errorf("Expected total energy 12, got %v", kpi.Sum)
	}
	if total, ok := kpi.Headline(); !ok || total != 12 {
		t.Errorf("Headline() = %v, %v", total, ok)
	}
}

func TestCompute_InvalidRange(t *testing.T) {
	store := loadCSV(t, homeCSV)

	result, err := Compute(store, Request{Start: day(2024, 2, 1), End: day(2024, 1, 1)})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Expected ErrInvalidRange, got %v", err)
	}
	if result != nil {
		t.Error("rejected request must not produce a result")
	}
}

func TestCompute_EmptyRangeIsNoData(t *testing.T) {
	store := loadCSV(t, homeCSV)

	result, err := Compute(store, Request{Start: day(2030, 1, 1), End: day(2030, 12, 31)})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if !result.NoData || result.RowCount != 0 {
		t.Errorf("Expected NoData with 0 rows, got NoData=%v rows=%d", result.NoData, result.RowCount)
	}
	if len(result.Buckets) != 0 {
		t.Errorf("Expected no buckets, got %d", len(result.Buckets))
	}
	for name, kpi := range result.KPIs {
		if !kpi.NoData || kpi.Mean != nil || kpi.Sum != nil {
			t.Errorf("KPI %s should be no data, got %+v", name, kpi)
		}
	}

	// the whole result must serialize: no NaN anywhere
	if _, err := json.Marshal(result); err != nil {
		t.Errorf("result does not serialize: %v", err)
	}
}

func TestCompute_OpenStartPastData(t *testing.T) {
	store := loadCSV(t, homeCSV)

	result, err := Compute(store, Request{Start: day(2026, 1, 1)})
	if err != nil {
		t.Fatalf("a defaulted end must not make the range invalid: %v", err)
	}
	if !result.NoData {
		t.Error("Expected NoData")
	}
}

func TestCompute_BucketRowsEqualFilteredRows(t *testing.T) {
	store := loadCSV(t, homeCSV)

	for _, g := range []Granularity{GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityYearly} {
		t.Run(string(g), func(t *testing.T) {
			result, err := Compute(store, Request{Granularity: g})
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			total := 0
			for i, b := range result.Buckets {
				total += b.Rows
				if i > 0 && !result.Buckets[i-1].Start.Before(b.Start) {
					t.Errorf("buckets not ascending: %s then %s", result.Buckets[i-1].Label, b.Label)
				}
			}
			if total != result.RowCount {
				t.Errorf("bucket rows %d != filtered rows %d", total, result.RowCount)
			}
			if result.RowCount != store.Len() {
				t.Errorf("default range should cover all %d rows, got %d", store.Len(), result.RowCount)
			}
		})
	}
}

func TestCompute_Reducers(t *testing.T) {
	store := loadCSV(t, homeCSV)

	result, err := Compute(store, Request{
		Start:       day(2024, 1, 1),
		End:         day(2024, 1, 31),
		Rooms:       []string{"LivingRoom"},
		Granularity: GranularityWeekly,
		Detail:      true,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(result.Buckets) != 2 {
		t.Fatalf("Expected 2 weekly buckets, got %d", len(result.Buckets))
	}
	first := result.Buckets[0]
	if first.Label != "2024-W01" || first.Rows != 3 {
		t.Errorf("first bucket = %s rows %d", first.Label, first.Rows)
	}

	temp := first.Values["temperature.LivingRoom"]
	if temp.Value == nil || math.Abs(*temp.Value-20.333333) > 1e-5 {
		t.Errorf("mean temperature = %v", temp.Value)
	}
	if temp.Min == nil || *temp.Min != 19 || temp.Max == nil || *temp.Max != 22 {
		t.Errorf("detail min/max = %v/%v", temp.Min, temp.Max)
	}

	humid := first.Values["humidity.LivingRoom"]
	if humid.Count != 2 || *humid.Value != 42 {
		t.Errorf("humidity must skip the empty cell: count=%d value=%v", humid.Count, humid.Value)
	}

	energy := first.Values["energy"]
	if *energy.Value != 6 {
		t.Errorf("weekly energy sum = %v, want 6", *energy.Value)
	}

	if _, ok := first.Values["temperature.Kitchen"]; ok {
		t.Error("unselected room must not appear")
	}

	kpi := result.KPIs["temperature.LivingRoom"]
	if kpi.Sum != nil {
		t.Error("Sum is only reported for energy")
	}
	if *kpi.Min != 19 || *kpi.Max != 22 || kpi.Count != 4 {
		t.Errorf("temperature KPI = %+v", kpi)
	}
	if !kpi.MinAt.Equal(time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("MinAt = %v", kpi.MinAt)
	}
}

func TestCompute_NoDetailOmitsMinMax(t *testing.T) {
	store := loadCSV(t, homeCSV)
	result, err := Compute(store, Request{Metrics: []readings.Metric{readings.MetricTemperature}})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for _, b := range result.Buckets {
		for name, v := range b.Values {
			if v.Min != nil || v.Max != nil {
				t.Errorf("%s %s: min/max set without detail", b.Label, name)
			}
		}
	}
	if _, ok := result.KPIs["energy"]; ok {
		t.Error("energy was not selected")
	}
}

func TestCompute_BucketWithoutValues(t *testing.T) {
	store := loadCSV(t, homeCSV)
	result, err := Compute(store, Request{
		Start: day(2024, 1, 8),
		End:   day(2024, 1, 9),
		Rooms: []string{"Kitchen"},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(result.Buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(result.Buckets))
	}
	v := result.Buckets[0].Values["temperature.Kitchen"]
	if !v.NoData || v.Value != nil {
		t.Errorf("empty series in a bucket must be NoData, got %+v", v)
	}
	if result.Buckets[0].Rows != 1 {
		t.Errorf("row still counts: %d", result.Buckets[0].Rows)
	}
}

func TestCompute_MissingSeriesFlagged(t *testing.T) {
	store := loadCSV(t, homeCSV)

	result, err := Compute(store, Request{Rooms: []string{"Kitchen", "Bedroom"}})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	missing := map[string]bool{}
	for _, m := range result.Missing {
		missing[m.Column] = true
	}
	if !missing["Temperature_Bedroom"] || !missing["Humidity_Bedroom"] {
		t.Errorf("Bedroom series should be flagged missing: %+v", result.Missing)
	}
	if _, ok := result.KPIs["temperature.Bedroom"]; ok {
		t.Error("missing series must be excluded")
	}
	if _, ok := result.KPIs["temperature.Kitchen"]; !ok {
		t.Error("present series must be kept")
	}
	if result.NoData {
		t.Error("missing columns do not make the result empty")
	}
}

func TestCompute_YearlyAcrossYears(t *testing.T) {
	store := loadCSV(t, homeCSV)
	result, err := Compute(store, Request{Granularity: GranularityYearly, Metrics: []readings.Metric{readings.MetricEnergy}})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(result.Buckets) != 2 {
		t.Fatalf("Expected 2 yearly buckets, got %d", len(result.Buckets))
	}
	if *result.Buckets[0].Values["energy"].Value != 21 || *result.Buckets[1].Values["energy"].Value != 7 {
		t.Errorf("yearly sums = %v, %v", *result.Buckets[0].Values["energy"].Value, *result.Buckets[1].Values["energy"].Value)
	}
}

func TestAggregate_UnsortedInput(t *testing.T) {
	key := readings.SeriesKey{Metric: readings.MetricEnergy}
	rows := []readings.Reading{
		{Time: day(2024, 3, 2), Values: map[readings.SeriesKey]float64{key: 2}},
		{Time: day(2024, 3, 1), Values: map[readings.SeriesKey]float64{key: 1}},
		{Time: day(2024, 3, 2).Add(time.Hour), Values: map[readings.SeriesKey]float64{key: 3}},
	}
	buckets := Aggregate(rows, []readings.SeriesKey{key}, Request{Granularity: GranularityDaily})
	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "2024-03-01" || *buckets[1].Values["energy"].Value != 5 {
		t.Errorf("unexpected buckets %+v", buckets)
	}
}

func TestSummarize_Empty(t *testing.T) {
	key := readings.SeriesKey{Room: "Kitchen", Metric: readings.MetricHumidity}
	kpis := Summarize(nil, []readings.SeriesKey{key})
	kpi, ok := kpis["humidity.Kitchen"]
	if !ok || !kpi.NoData {
		t.Fatalf("Expected NoData KPI, got %+v", kpi)
	}
	if _, ok := kpi.Headline(); ok {
		t.Error("Headline of an empty KPI must report no data")
	}
	if buckets := Aggregate(nil, []readings.SeriesKey{key}, Request{}); len(buckets) != 0 {
		t.Errorf("Expected no buckets, got %d", len(buckets))
	}
}

func TestResolveSeries(t *testing.T) {
	schema, err := readings.NewSchema([]string{"AC_Timestamp", "Temperature_A", "Humidity_A", "Energy_B"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	present, missing := ResolveSeries(schema, Request{})
	if len(present) != 3 {
		t.Errorf("Expected 3 present series, got %v", present)
	}
	// room B has no temperature/humidity
	if len(missing) != 2 {
		t.Errorf("Expected 2 missing, got %+v", missing)
	}

	present, missing = ResolveSeries(schema, Request{Rooms: []string{"A"}, Metrics: []readings.Metric{readings.MetricEnergy}})
	if len(present) != 0 || len(missing) != 1 || missing[0].Column != "Energy_Consumption" {
		t.Errorf("energy for room A should be missing, got %v %+v", present, missing)
	}
}
