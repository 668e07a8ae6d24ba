package downsampling

import (
	"math"
	"testing"
	"time"

	"github.com/soltixdb/homedash/internal/analytics"
)

func series(values ...float64) analytics.TimeSeriesData {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(analytics.TimeSeriesData, len(values))
	for i, v := range values {
		out[i] = analytics.TimeSeriesPoint{Time: base.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return out
}

func sine(n int) analytics.TimeSeriesData {
	values := make([]float64, n)
	for i := range values {
		values[i] = 20 + 2*math.Sin(float64(i)/50)
	}
	return series(values...)
}

func assertTimeOrdered(t *testing.T, data analytics.TimeSeriesData) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			t.Fatalf("points not strictly time ordered at %d", i)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeNone, false},
		{"none", ModeNone, false},
		{"auto", ModeAuto, false},
		{"lttb", ModeLTTB, false},
		{"m4", ModeM4, false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestApply_None(t *testing.T) {
	data := sine(50)
	out, used, err := Apply(data, ModeNone, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(data) || used != ModeNone {
		t.Errorf("expected passthrough, got %d points mode %s", len(out), used)
	}
}

func TestApply_AutoBelowThreshold(t *testing.T) {
	data := series(1, 2, 3)
	out, used, err := Apply(data, ModeAuto, DefaultAutoThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || used != ModeNone {
		t.Errorf("expected no downsampling, got %d points mode %s", len(out), used)
	}
}

func TestApply_AutoSmoothPicksLTTB(t *testing.T) {
	out, used, err := Apply(sine(2000), ModeAuto, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != ModeLTTB {
		t.Errorf("smooth data should use lttb, got %s", used)
	}
	if len(out) != 100 {
		t.Errorf("expected 100 points, got %d", len(out))
	}
}

func TestApply_AutoSpikyPicksMinMax(t *testing.T) {
	values := make([]float64, 500)
	for i := range values {
		if i%2 == 0 {
			values[i] = 100
		}
	}
	_, used, err := Apply(series(values...), ModeAuto, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != ModeMinMax {
		t.Errorf("alternating data should use minmax, got %s", used)
	}
}

func TestLTTB_KeepsEndpoints(t *testing.T) {
	data := sine(1000)
	out, _, err := Apply(data, ModeLTTB, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 50 {
		t.Fatalf("expected 50 points, got %d", len(out))
	}
	if out[0] != data[0] || out[len(out)-1] != data[len(data)-1] {
		t.Error("LTTB must keep first and last point")
	}
	assertTimeOrdered(t, out)
}

func TestMinMax_PreservesSpike(t *testing.T) {
	values := make([]float64, 1000)
	values[437] = 99
	values[712] = -50

	out, _, err := Apply(series(values...), ModeMinMax, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) > 20 {
		t.Errorf("expected at most 20 points, got %d", len(out))
	}
	var sawMax, sawMin bool
	for _, p := range out {
		sawMax = sawMax || p.Value == 99
		sawMin = sawMin || p.Value == -50
	}
	if !sawMax || !sawMin {
		t.Error("minmax must keep the global extremes")
	}
	assertTimeOrdered(t, out)
}

func TestM4(t *testing.T) {
	data := sine(1000)
	out, used, err := Apply(data, ModeM4, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != ModeM4 || len(out) > 40 {
		t.Errorf("mode %s, %d points", used, len(out))
	}
	if out[0] != data[0] || out[len(out)-1] != data[len(data)-1] {
		t.Error("M4 keeps the first and last sample of the series")
	}
	assertTimeOrdered(t, out)
}

func TestAverage(t *testing.T) {
	out, used, err := Apply(series(1, 3, 5, 7, 9, 11), ModeAverage, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used != ModeAverage || len(out) != 3 {
		t.Fatalf("mode %s, %d points", used, len(out))
	}
	want := []float64{2, 6, 10}
	for i, p := range out {
		if p.Value != want[i] {
			t.Errorf("bucket %d = %f, want %f", i, p.Value, want[i])
		}
	}
}

func TestApply_UnknownMode(t *testing.T) {
	if _, _, err := Apply(sine(100), Mode("bogus"), 10); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestCalculateSpikiness(t *testing.T) {
	if s := calculateSpikiness(series(1, 2, 3)); s != 0 {
		t.Errorf("short series spikiness = %f", s)
	}
	flat := make([]float64, 20)
	if s := calculateSpikiness(series(flat...)); s != 0 {
		t.Errorf("flat series spikiness = %f", s)
	}
}
