package anomaly

import (
	"math"
)

// ZScoreDetector flags points more than Threshold standard deviations from the
// series mean. A series without any variation is reported as a flatline.
type ZScoreDetector struct{}

func init() {
	RegisterDetector("zscore", &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	values := make([]float64, len(data))
	for i, dp := range data {
		values[i] = dp.Value
	}
	mean, stdDev := CalculateMeanStdDev(values)

	if stdDev == 0 {
		results := make([]AnomalyResult, len(data))
		for i := range data {
			results[i] = AnomalyResult{Index: i, Score: 1, Type: AnomalyTypeFlatline}
		}
		return results
	}

	expected := &Range{
		Min: mean - config.Threshold*stdDev,
		Max: mean + config.Threshold*stdDev,
	}

	var results []AnomalyResult
	for i, v := range values {
		score := CalculateZScore(v, mean, stdDev)
		if math.Abs(score) <= config.Threshold {
			continue
		}
		typ := AnomalyTypeSpike
		if score < 0 {
			typ = AnomalyTypeDrop
		}
		results = append(results, AnomalyResult{
			Index:    i,
			Score:    math.Abs(score),
			Type:     typ,
			Expected: expected,
		})
	}
	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// CalculateMeanStdDev returns the mean and population standard deviation
func CalculateMeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var varianceSum float64
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	return mean, math.Sqrt(varianceSum / float64(len(values)))
}
