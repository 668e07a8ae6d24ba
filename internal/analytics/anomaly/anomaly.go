// Package anomaly flags unusual samples in raw sensor series (a stuck sensor,
// a heating spike, a humidity drop).
package anomaly

import (
	"fmt"
	"sort"
	"time"

	"github.com/soltixdb/homedash/internal/analytics"
)

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeSpike    AnomalyType = "spike"    // above the expected range
	AnomalyTypeDrop     AnomalyType = "drop"     // below the expected range
	AnomalyTypeFlatline AnomalyType = "flatline" // no variation, possibly a stuck sensor
)

// Anomaly is one flagged sample of a series
type Anomaly struct {
	Time      time.Time   `json:"time"`
	Series    string      `json:"series"`
	Value     float64     `json:"value"`
	Expected  *Range      `json:"expected,omitempty"`
	Score     float64     `json:"score"` // higher = more abnormal
	Type      AnomalyType `json:"type"`
	Algorithm string      `json:"algorithm"`
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DataPoint is the shared analytics sample type
type DataPoint = analytics.TimeSeriesPoint

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold is the sensitivity: standard deviations for zscore and
	// moving_avg, the IQR multiplier for iqr
	Threshold float64

	// WindowSize for moving_avg
	WindowSize int

	// MinDataPoints below which no detection is attempted
	MinDataPoints int
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     3.0,
		WindowSize:    10,
		MinDataPoints: 10,
	}
}

// AnomalyDetector is implemented by every detection algorithm
type AnomalyDetector interface {
	Name() string

	// Detect returns the flagged indices of data with their scores
	Detect(data []DataPoint, config DetectorConfig) []AnomalyResult
}

// AnomalyResult contains detection result for a single point
type AnomalyResult struct {
	Index    int
	Score    float64
	Type     AnomalyType
	Expected *Range
}

var detectorRegistry = make(map[string]AnomalyDetector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector AnomalyDetector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (AnomalyDetector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the sorted names of available detectors
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect runs the named algorithm over one series and returns its anomalies in
// time order.
func Detect(algorithm, series string, data analytics.TimeSeriesData, config DetectorConfig) ([]Anomaly, error) {
	detector, err := GetDetector(algorithm)
	if err != nil {
		return nil, err
	}

	results := detector.Detect(data, config)
	out := make([]Anomaly, 0, len(results))
	for _, r := range results {
		p := data[r.Index]
		out = append(out, Anomaly{
			Time:      p.Time,
			Series:    series,
			Value:     p.Value,
			Expected:  r.Expected,
			Score:     r.Score,
			Type:      r.Type,
			Algorithm: detector.Name(),
		})
	}
	return out, nil
}
