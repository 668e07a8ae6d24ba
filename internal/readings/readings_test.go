package readings

import (
	"testing"
	"time"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name   string
		column string
		want   SeriesKey
		ok     bool
	}{
		{"temperature", "Temperature_Kitchen", SeriesKey{Room: "Kitchen", Metric: MetricTemperature}, true},
		{"humidity", "Humidity_LivingRoom", SeriesKey{Room: "LivingRoom", Metric: MetricHumidity}, true},
		{"room energy", "Energy_Garage", SeriesKey{Room: "Garage", Metric: MetricEnergy}, true},
		{"house energy", "Energy_Consumption", SeriesKey{Room: WholeHome, Metric: MetricEnergy}, true},
		{"case insensitive", "temperature_Bedroom", SeriesKey{Room: "Bedroom", Metric: MetricTemperature}, true},
		{"timestamp", "AC_Timestamp", SeriesKey{}, false},
		{"no room", "Temperature_", SeriesKey{}, false},
		{"unknown", "Pressure_Kitchen", SeriesKey{}, false},
		{"bare", "Notes", SeriesKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseColumn(tt.column)
			if ok != tt.ok {
				t.Fatalf("ParseColumn(%q) ok = %v, want %v", tt.column, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseColumn(%q) = %+v, want %+v", tt.column, got, tt.want)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	for _, in := range []string{"temperature", "Temperature", " temp "} {
		if m, err := ParseMetric(in); err != nil || m != MetricTemperature {
			t.Errorf("ParseMetric(%q) = %q, %v", in, m, err)
		}
	}
	if m, err := ParseMetric("energy_consumption"); err != nil || m != MetricEnergy {
		t.Errorf("ParseMetric(energy_consumption) = %q, %v", m, err)
	}
	if _, err := ParseMetric("pressure"); err == nil {
		t.Error("Expected error for unknown metric")
	}
}

func TestMetricReducer(t *testing.T) {
	if MetricEnergy.Reducer() != ReducerSum {
		t.Errorf("energy reducer = %s, want sum", MetricEnergy.Reducer())
	}
	if MetricTemperature.Reducer() != ReducerMean || MetricHumidity.Reducer() != ReducerMean {
		t.Error("temperature and humidity must reduce by mean")
	}
	if MetricEnergy.Environmental() {
		t.Error("energy is not environmental")
	}
}

func TestSeriesKeyName(t *testing.T) {
	if got := (SeriesKey{Room: "Kitchen", Metric: MetricHumidity}).Name(); got != "humidity.Kitchen" {
		t.Errorf("Name() = %q", got)
	}
	if got := (SeriesKey{Metric: MetricEnergy}).Name(); got != "energy" {
		t.Errorf("Name() = %q", got)
	}
}

func TestNewSchema(t *testing.T) {
	header := []string{"AC_Timestamp", "Temperature_LivingRoom", "Humidity_LivingRoom", "Temperature_Kitchen", "Energy_Consumption", "Notes"}
	s, err := NewSchema(header, 0)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	if s.TimestampColumn != "AC_Timestamp" {
		t.Errorf("TimestampColumn = %q", s.TimestampColumn)
	}
	if idx, ok := s.Lookup("Kitchen", MetricTemperature); !ok || idx != 3 {
		t.Errorf("Lookup(Kitchen, temperature) = %d, %v", idx, ok)
	}
	if _, ok := s.Lookup("Kitchen", MetricHumidity); ok {
		t.Error("Kitchen humidity must be missing")
	}
	if idx, ok := s.Lookup(WholeHome, MetricEnergy); !ok || idx != 4 {
		t.Errorf("Lookup(whole-home energy) = %d, %v", idx, ok)
	}

	rooms := s.Rooms()
	if len(rooms) != 2 || rooms[0] != "Kitchen" || rooms[1] != "LivingRoom" {
		t.Errorf("Rooms() = %v", rooms)
	}
	if !s.HasRoom("LivingRoom") || s.HasRoom("Garage") {
		t.Error("HasRoom mismatch")
	}

	series := s.Series()
	if len(series) != 4 {
		t.Fatalf("Series() len = %d, want 4", len(series))
	}
	if series[0] != (SeriesKey{Metric: MetricEnergy}) {
		t.Errorf("whole-home series should sort first, got %v", series[0])
	}
	if name, ok := s.ColumnName(SeriesKey{Room: "LivingRoom", Metric: MetricHumidity}); !ok || name != "Humidity_LivingRoom" {
		t.Errorf("ColumnName = %q, %v", name, ok)
	}
}

func TestNewSchema_Errors(t *testing.T) {
	if _, err := NewSchema([]string{"a"}, 3); err == nil {
		t.Error("Expected error for out-of-range timestamp index")
	}
	if _, err := NewSchema([]string{"ts", "Temperature_A", "temperature_A"}, 0); err == nil {
		t.Error("Expected error for duplicate series column")
	}
}

func TestStore_SortsAndSlices(t *testing.T) {
	s, _ := NewSchema([]string{"AC_Timestamp", "Energy_Consumption"}, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	key := SeriesKey{Metric: MetricEnergy}

	rows := []Reading{
		{Time: base.Add(2 * time.Hour), Line: 2, Values: map[SeriesKey]float64{key: 3}},
		{Time: base, Line: 3, Values: map[SeriesKey]float64{key: 1}},
		{Time: base.Add(time.Hour), Line: 4, Values: map[SeriesKey]float64{key: 2}},
	}
	store := NewStore("mem", s, rows, LoadStats{Rows: 3, Loaded: 3})

	if store.Len() != 3 {
		t.Fatalf("Len() = %d", store.Len())
	}
	for i, r := range store.Readings() {
		if v, _ := r.Value(key); v != float64(i+1) {
			t.Errorf("reading %d value = %v, want %d", i, v, i+1)
		}
	}

	first, last, ok := store.Span()
	if !ok || !first.Equal(base) || !last.Equal(base.Add(2*time.Hour)) {
		t.Errorf("Span() = %v %v %v", first, last, ok)
	}

	between := store.Between(base.Add(time.Hour), base.Add(2*time.Hour))
	if len(between) != 2 {
		t.Errorf("Between inclusive bounds returned %d rows, want 2", len(between))
	}
	if got := store.Between(base.Add(3*time.Hour), base.Add(4*time.Hour)); len(got) != 0 {
		t.Errorf("Between outside span returned %d rows", len(got))
	}
}

func TestStore_Empty(t *testing.T) {
	store := NewStore("mem", nil, nil, LoadStats{})
	if _, _, ok := store.Span(); ok {
		t.Error("empty store must not have a span")
	}
	if got := store.Between(time.Time{}, time.Now()); got != nil {
		t.Errorf("Between on empty store = %v", got)
	}
}
