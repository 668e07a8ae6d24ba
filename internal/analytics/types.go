// Package analytics provides the time-series types shared by downsampling and
// anomaly detection of raw sensor series.
package analytics

import (
	"math"
	"time"
)

// TimeSeriesPoint is a single sample of one series
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesData is a time-ordered series
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// Mean returns the mean of all values, 0 for an empty series
func (ts TimeSeriesData) Mean() float64 {
	if len(ts) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range ts {
		sum += p.Value
	}
	return sum / float64(len(ts))
}

// StdDev returns the population standard deviation of all values
func (ts TimeSeriesData) StdDev() float64 {
	if len(ts) < 2 {
		return 0
	}
	mean := ts.Mean()
	sumSq := 0.0
	for _, p := range ts {
		diff := p.Value - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(ts)))
}
