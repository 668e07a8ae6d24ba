package aggregation

import (
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/homedash/internal/readings"
)

var (
	ErrInvalidRange       = errors.New("start is after end")
	ErrInvalidGranularity = errors.New("invalid granularity")
)

// Request selects what to aggregate. Zero Start/End default to the first/last
// reading of the store; empty Rooms selects every room of the schema and empty
// Metrics selects every metric.
type Request struct {
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Rooms       []string          `json:"rooms,omitempty"`
	Metrics     []readings.Metric `json:"metrics,omitempty"`
	Granularity Granularity       `json:"granularity"`
	Detail      bool              `json:"detail"` // per-bucket min/max
}

// Validate checks the request without looking at data
func (r *Request) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	if r.Granularity != "" && !r.Granularity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, r.Granularity)
	}
	for _, m := range r.Metrics {
		if _, err := readings.ParseMetric(string(m)); err != nil {
			return err
		}
	}
	return nil
}

// Normalize validates the request and fills defaults from the store. The result
// has a granularity, a non-empty metric list and concrete bounds when the store
// has data.
func (r Request) Normalize(store *readings.Store) (Request, error) {
	if err := r.Validate(); err != nil {
		return r, err
	}
	if r.Granularity == "" {
		r.Granularity = GranularityDaily
	}
	if len(r.Metrics) == 0 {
		r.Metrics = readings.AllMetrics()
	}

	// A defaulted bound never turns an open range into an invalid one; a start
	// past the last reading yields an empty range instead.
	if first, last, ok := store.Span(); ok {
		switch {
		case r.Start.IsZero() && r.End.IsZero():
			r.Start, r.End = first, last
		case r.Start.IsZero():
			r.Start = minTime(first, r.End)
		case r.End.IsZero():
			r.End = maxTime(last, r.Start)
		}
	}
	return r, nil
}

// MissingSeries flags a requested series that has no column in the source
type MissingSeries struct {
	Room   string          `json:"room,omitempty"`
	Metric readings.Metric `json:"metric"`
	Column string          `json:"column"`
}

// ResolveSeries maps the request selection onto columns of the schema.
// Temperature and humidity resolve per selected room. Energy resolves to the
// whole-home column plus any per-room energy columns of selected rooms; it is
// flagged missing only when none exist.
func ResolveSeries(schema *readings.Schema, req Request) ([]readings.SeriesKey, []MissingSeries) {
	rooms := req.Rooms
	if len(rooms) == 0 {
		rooms = schema.Rooms()
	}
	metrics := req.Metrics
	if len(metrics) == 0 {
		metrics = readings.AllMetrics()
	}

	var (
		present []readings.SeriesKey
		missing []MissingSeries
		seen    = make(map[readings.SeriesKey]struct{})
	)
	add := func(k readings.SeriesKey) {
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		present = append(present, k)
	}

	for _, m := range metrics {
		if m.Environmental() {
			for _, room := range rooms {
				key := readings.SeriesKey{Room: room, Metric: m}
				if schema.Has(key) {
					add(key)
					continue
				}
				missing = append(missing, MissingSeries{
					Room:   room,
					Metric: m,
					Column: m.ColumnPrefix() + "_" + room,
				})
			}
			continue
		}

		found := false
		house := readings.SeriesKey{Room: readings.WholeHome, Metric: m}
		if schema.Has(house) {
			add(house)
			found = true
		}
		for _, room := range rooms {
			key := readings.SeriesKey{Room: room, Metric: m}
			if schema.Has(key) {
				add(key)
				found = true
			}
		}
		if !found {
			missing = append(missing, MissingSeries{Metric: m, Column: readings.HouseEnergyColumn})
		}
	}

	return present, missing
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
