package aggregation

import (
	"math"
	"time"
)

// Accumulator collects running statistics for one series
type Accumulator struct {
	Count      int64
	Sum        float64
	Min        float64
	Max        float64
	MinTime    time.Time // first time the minimum was observed
	MaxTime    time.Time // first time the maximum was observed
	SumSquares float64
}

// Add adds a single observation
func (a *Accumulator) Add(value float64, observedAt time.Time) {
	if a.Count == 0 {
		a.Min, a.Max = value, value
		a.MinTime, a.MaxTime = observedAt, observedAt
	} else {
		if value < a.Min || (value == a.Min && observedAt.Before(a.MinTime)) {
			a.Min, a.MinTime = value, observedAt
		}
		if value > a.Max || (value == a.Max && observedAt.Before(a.MaxTime)) {
			a.Max, a.MaxTime = value, observedAt
		}
	}
	a.Count++
	a.Sum += value
	a.SumSquares += value * value
}

// Merge combines another accumulator into this one
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil || other.Count == 0 {
		return
	}
	if a.Count == 0 {
		*a = *other
		return
	}
	if other.Min < a.Min || (other.Min == a.Min && other.MinTime.Before(a.MinTime)) {
		a.Min, a.MinTime = other.Min, other.MinTime
	}
	if other.Max > a.Max || (other.Max == a.Max && other.MaxTime.Before(a.MaxTime)) {
		a.Max, a.MaxTime = other.Max, other.MaxTime
	}
	a.Count += other.Count
	a.Sum += other.Sum
	a.SumSquares += other.SumSquares
}

// Empty reports whether no value has been added
func (a *Accumulator) Empty() bool {
	return a.Count == 0
}

// Mean returns the arithmetic mean; ok is false when empty
func (a *Accumulator) Mean() (float64, bool) {
	if a.Count == 0 {
		return 0, false
	}
	return a.Sum / float64(a.Count), true
}

// Variance returns the population variance
func (a *Accumulator) Variance() float64 {
	if a.Count <= 1 {
		return 0
	}
	mean := a.Sum / float64(a.Count)
	v := a.SumSquares/float64(a.Count) - mean*mean
	if v < 0 {
		return 0 // rounding
	}
	return v
}

// StdDev returns the population standard deviation
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}
