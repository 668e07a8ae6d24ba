// Package readings holds the in-memory model of a loaded sensor dataset:
// metrics, the (room, metric) -> column schema, and the immutable reading store.
package readings

import (
	"errors"
	"fmt"
	"strings"
)

// Metric identifies a measured quantity
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricEnergy      Metric = "energy"
)

// Reducer names how a metric collapses over a time bucket
type Reducer string

const (
	ReducerSum  Reducer = "sum"
	ReducerMean Reducer = "mean"
)

// WholeHome is the room of series that are not tied to a single room
const WholeHome = ""

// HouseEnergyColumn is the whole-dataset energy column
const HouseEnergyColumn = "Energy_Consumption"

// AllMetrics returns every supported metric in display order
func AllMetrics() []Metric {
	return []Metric{MetricTemperature, MetricHumidity, MetricEnergy}
}

var ErrUnknownMetric = errors.New("unknown metric")

// ParseMetric parses a metric name or column prefix, case-insensitively
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp":
		return MetricTemperature, nil
	case "humidity", "humid":
		return MetricHumidity, nil
	case "energy", "energy_consumption":
		return MetricEnergy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// ColumnPrefix returns the header prefix used by the <Metric>_<Room> convention
func (m Metric) ColumnPrefix() string {
	switch m {
	case MetricTemperature:
		return "Temperature"
	case MetricHumidity:
		return "Humidity"
	case MetricEnergy:
		return "Energy"
	default:
		return ""
	}
}

// Unit returns the display unit
func (m Metric) Unit() string {
	switch m {
	case MetricTemperature:
		return "°C"
	case MetricHumidity:
		return "%"
	case MetricEnergy:
		return "kWh"
	default:
		return ""
	}
}

// Reducer returns the bucket reducer. Energy is a flow quantity and is summed,
// temperature and humidity are point samples and are averaged.
func (m Metric) Reducer() Reducer {
	if m == MetricEnergy {
		return ReducerSum
	}
	return ReducerMean
}

// Environmental reports whether the metric is a per-room point sample
func (m Metric) Environmental() bool {
	return m == MetricTemperature || m == MetricHumidity
}

// SeriesKey identifies one column of values: a room and a metric
type SeriesKey struct {
	Room   string `json:"room"`
	Metric Metric `json:"metric"`
}

// Name returns the stable series name used in results, e.g. "temperature.Kitchen"
// or "energy" for the whole-home energy series.
func (k SeriesKey) Name() string {
	if k.Room == WholeHome {
		return string(k.Metric)
	}
	return string(k.Metric) + "." + k.Room
}

func (k SeriesKey) String() string {
	return k.Name()
}
