// Package downsampling reduces raw sensor series to a point budget for charting.
package downsampling

import (
	"fmt"
	"math"

	"github.com/soltixdb/homedash/internal/analytics"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone means no downsampling
	ModeNone Mode = "none"
	// ModeAuto picks an algorithm from the data when over the threshold
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps min and max per bucket (preserves spikes)
	ModeMinMax Mode = "minmax"
	// ModeAverage replaces each bucket by its mean
	ModeAverage Mode = "avg"
	// ModeM4 keeps first, min, max and last per bucket
	ModeM4 Mode = "m4"
)

// DefaultAutoThreshold is the default threshold for auto mode
const DefaultAutoThreshold = 1000

// MinLTTBThreshold is the minimum threshold for LTTB algorithm
const MinLTTBThreshold = 3

// ValidModes returns all valid downsampling modes
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4}
}

// ParseMode parses a mode name; empty selects none
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeNone, nil
	}
	for _, m := range ValidModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown downsampling mode: %s", s)
}

// Apply downsamples a time-ordered series to about threshold points. It returns
// the series and the mode that was actually applied (ModeNone when the series
// already fits).
func Apply(data analytics.TimeSeriesData, mode Mode, threshold int) (analytics.TimeSeriesData, Mode, error) {
	if mode == ModeNone || mode == "" {
		return data, ModeNone, nil
	}

	if mode == ModeAuto {
		if threshold <= 0 {
			threshold = DefaultAutoThreshold
		}
		if len(data) <= threshold {
			return data, ModeNone, nil
		}
		mode = detectBestAlgorithm(data)
	}

	if threshold < 2 {
		threshold = 2
	}
	if len(data) <= threshold {
		return data, ModeNone, nil
	}

	var indices []int
	switch mode {
	case ModeLTTB:
		if threshold < MinLTTBThreshold {
			threshold = MinLTTBThreshold
		}
		indices = lttb(data, threshold)
	case ModeMinMax:
		indices = minmax(data, threshold)
	case ModeM4:
		indices = m4(data, threshold)
	case ModeAverage:
		return average(data, threshold), ModeAverage, nil
	default:
		return data, ModeNone, fmt.Errorf("unknown downsampling mode: %s", mode)
	}

	out := make(analytics.TimeSeriesData, len(indices))
	for i, idx := range indices {
		out[i] = data[idx]
	}
	return out, mode, nil
}

// detectBestAlgorithm selects MinMax for spiky data, M4 for moderately
// spiky data and LTTB for smooth data.
func detectBestAlgorithm(data analytics.TimeSeriesData) Mode {
	spikiness := calculateSpikiness(data)
	switch {
	case spikiness > 0.2:
		return ModeMinMax
	case spikiness > 0.1:
		return ModeM4
	default:
		return ModeLTTB
	}
}

// calculateSpikiness returns a value in [0, 1]: the weighted share of points
// beyond 2σ of the mean and of steps larger than 1σ.
func calculateSpikiness(data analytics.TimeSeriesData) float64 {
	if len(data) < 10 {
		return 0
	}

	mean := data.Mean()
	stdDev := data.StdDev()
	if stdDev == 0 {
		return 0
	}

	spikes, steps := 0, 0
	for i, p := range data {
		if math.Abs(p.Value-mean) > 2*stdDev {
			spikes++
		}
		if i > 0 && math.Abs(p.Value-data[i-1].Value) > stdDev {
			steps++
		}
	}

	absolute := float64(spikes) / float64(len(data))
	derivative := float64(steps) / float64(len(data)-1)
	return math.Min(1, (absolute+1.5*derivative)/2.5)
}

// bucketBounds splits n points into k contiguous buckets
func bucketBounds(n, k, i int) (int, int) {
	size := float64(n) / float64(k)
	start := int(float64(i) * size)
	end := int(float64(i+1) * size)
	if end > n {
		end = n
	}
	return start, end
}

// lttb implements Largest-Triangle-Three-Buckets using the sample time as x, so
// irregular sampling intervals are respected.
func lttb(data analytics.TimeSeriesData, threshold int) []int {
	n := len(data)
	x := func(i int) float64 { return float64(data[i].Time.Unix()) }

	sampled := make([]int, 0, threshold)
	sampled = append(sampled, 0)

	bucketSize := float64(n-2) / float64(threshold-2)
	a := 0

	for i := 0; i < threshold-2; i++ {
		// average of the next bucket
		nextStart := int(math.Floor(float64(i+1)*bucketSize)) + 1
		nextEnd := int(math.Floor(float64(i+2)*bucketSize)) + 1
		if nextEnd > n {
			nextEnd = n
		}
		var avgX, avgY float64
		for j := nextStart; j < nextEnd; j++ {
			avgX += x(j)
			avgY += data[j].Value
		}
		if cnt := float64(nextEnd - nextStart); cnt > 0 {
			avgX /= cnt
			avgY /= cnt
		}

		from := int(math.Floor(float64(i)*bucketSize)) + 1
		to := int(math.Floor(float64(i+1)*bucketSize)) + 1

		ax, ay := x(a), data[a].Value
		maxArea := -1.0
		best := from
		for j := from; j < to; j++ {
			area := math.Abs((ax-avgX)*(data[j].Value-ay)-(ax-x(j))*(avgY-ay)) * 0.5
			if area > maxArea {
				maxArea = area
				best = j
			}
		}

		sampled = append(sampled, best)
		a = best
	}

	return append(sampled, n-1)
}

// minmax keeps the min and max of each bucket in time order. Output size is at
// most threshold.
func minmax(data analytics.TimeSeriesData, threshold int) []int {
	numBuckets := threshold / 2
	if numBuckets < 1 {
		numBuckets = 1
	}

	sampled := make([]int, 0, numBuckets*2)
	for i := 0; i < numBuckets; i++ {
		start, end := bucketBounds(len(data), numBuckets, i)
		if start >= end {
			continue
		}
		lo, hi := extremes(data, start, end)
		switch {
		case lo == hi:
			sampled = append(sampled, lo)
		case lo < hi:
			sampled = append(sampled, lo, hi)
		default:
			sampled = append(sampled, hi, lo)
		}
	}
	return sampled
}

// m4 keeps first, min, max and last of each bucket in time order
func m4(data analytics.TimeSeriesData, threshold int) []int {
	numBuckets := threshold / 4
	if numBuckets < 1 {
		numBuckets = 1
	}

	sampled := make([]int, 0, numBuckets*4)
	for i := 0; i < numBuckets; i++ {
		start, end := bucketBounds(len(data), numBuckets, i)
		if start >= end {
			continue
		}
		lo, hi := extremes(data, start, end)
		if lo > hi {
			lo, hi = hi, lo
		}
		for _, idx := range []int{start, lo, hi, end - 1} {
			if len(sampled) == 0 || idx > sampled[len(sampled)-1] {
				sampled = append(sampled, idx)
			}
		}
	}
	return sampled
}

// average replaces each bucket by its mean, placed at the bucket's middle sample
func average(data analytics.TimeSeriesData, threshold int) analytics.TimeSeriesData {
	out := make(analytics.TimeSeriesData, 0, threshold)
	for i := 0; i < threshold; i++ {
		start, end := bucketBounds(len(data), threshold, i)
		if start >= end {
			continue
		}
		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j].Value
		}
		mid := start + (end-start)/2
		out = append(out, analytics.TimeSeriesPoint{
			Time:  data[mid].Time,
			Value: sum / float64(end-start),
		})
	}
	return out
}

func extremes(data analytics.TimeSeriesData, start, end int) (lo, hi int) {
	lo, hi = start, start
	for j := start + 1; j < end; j++ {
		if data[j].Value < data[lo].Value {
			lo = j
		}
		if data[j].Value > data[hi].Value {
			hi = j
		}
	}
	return lo, hi
}
