package anomaly

import (
	"sort"
)

// IQRDetector flags points outside [Q1 - k*IQR, Q3 + k*IQR]. It is robust to the
// outliers it is looking for, unlike the z-score.
type IQRDetector struct{}

// DefaultIQRMultiplier is used when the configured threshold is not a plausible
// IQR multiplier
const DefaultIQRMultiplier = 1.5

func init() {
	RegisterDetector("iqr", &IQRDetector{})
}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return "iqr"
}

// Detect finds anomalies using IQR method
func (iqr *IQRDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	values := make([]float64, len(data))
	for i, dp := range data {
		values[i] = dp.Value
	}
	q1, q3, spread := CalculateIQR(values)

	// thresholds of 3 and more are z-score style sensitivities
	k := config.Threshold
	if k <= 0 || k >= 3 {
		k = DefaultIQRMultiplier
	}

	expected := &Range{Min: q1 - k*spread, Max: q3 + k*spread}

	var results []AnomalyResult
	for i, v := range values {
		var dist float64
		typ := AnomalyTypeSpike
		switch {
		case v > expected.Max:
			dist = v - expected.Max
		case v < expected.Min:
			dist = expected.Min - v
			typ = AnomalyTypeDrop
		default:
			continue
		}

		score := 1.0
		if spread > 0 {
			score = dist / spread
		}
		results = append(results, AnomalyResult{
			Index:    i,
			Score:    score,
			Type:     typ,
			Expected: expected,
		})
	}
	return results
}

// percentile returns the p-th percentile (0-100) of sorted data with linear
// interpolation
func percentile(sortedData []float64, p float64) float64 {
	switch len(sortedData) {
	case 0:
		return 0
	case 1:
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	if lower+1 >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}
	weight := index - float64(lower)
	return sortedData[lower]*(1-weight) + sortedData[lower+1]*weight
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 = percentile(sorted, 25)
	q3 = percentile(sorted, 75)
	return q1, q3, q3 - q1
}
