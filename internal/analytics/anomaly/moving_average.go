package anomaly

import (
	"math"
)

// MovingAverageDetector compares each point with the mean of its neighbours in a
// centered window, which catches sudden changes in slowly drifting series such as
// room temperature.
type MovingAverageDetector struct{}

func init() {
	RegisterDetector("moving_avg", &MovingAverageDetector{})
}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return "moving_avg"
}

// Detect finds anomalies using moving average method
func (ma *MovingAverageDetector) Detect(data []DataPoint, config DetectorConfig) []AnomalyResult {
	if len(data) == 0 || len(data) < config.MinDataPoints {
		return nil
	}

	window := config.WindowSize
	if window <= 0 {
		window = DefaultConfig().WindowSize
	}
	if window > len(data) {
		window = len(data) / 2
	}
	if window < 3 {
		window = 3
	}

	var results []AnomalyResult
	for i, dp := range data {
		start := max(0, i-window/2)
		end := min(len(data)-1, i+window/2)

		// neighbours only, the point itself is excluded
		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			if j != i {
				sum += data[j].Value
				count++
			}
		}
		if count == 0 {
			continue
		}
		mean := sum / float64(count)

		var sq float64
		for j := start; j <= end; j++ {
			if j != i {
				d := data[j].Value - mean
				sq += d * d
			}
		}
		stdDev := math.Sqrt(sq / float64(count))

		var deviation float64
		switch {
		case stdDev > 0:
			deviation = math.Abs(dp.Value-mean) / stdDev
		case dp.Value != mean:
			deviation = config.Threshold + 1
		}
		if deviation <= config.Threshold {
			continue
		}

		typ := AnomalyTypeSpike
		if dp.Value < mean {
			typ = AnomalyTypeDrop
		}
		results = append(results, AnomalyResult{
			Index: i,
			Score: deviation,
			Type:  typ,
			Expected: &Range{
				Min: mean - config.Threshold*stdDev,
				Max: mean + config.Threshold*stdDev,
			},
		})
	}
	return results
}
