package aggregation

import (
	"sort"
	"time"

	"github.com/soltixdb/homedash/internal/readings"
)

// Value is one reduced series value. Value is nil and NoData is set when the
// series had no numeric reading in the interval.
type Value struct {
	Count  int64    `json:"count"`
	Value  *float64 `json:"value"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	NoData bool     `json:"no_data,omitempty"`
}

// BucketResult is the reduction of every selected series over one bucket
type BucketResult struct {
	Bucket
	Rows   int              `json:"rows"` // readings in the bucket, with or without values
	Values map[string]Value `json:"values"`
}

// KPI summarizes one series over the whole filtered set
type KPI struct {
	Room   string          `json:"room,omitempty"`
	Metric readings.Metric `json:"metric"`
	Unit   string          `json:"unit"`
	Count  int64           `json:"count"`
	Sum    *float64        `json:"sum,omitempty"` // energy only
	Mean   *float64        `json:"mean"`
	Min    *float64        `json:"min"`
	Max    *float64        `json:"max"`
	MinAt  *time.Time      `json:"min_at,omitempty"`
	MaxAt  *time.Time      `json:"max_at,omitempty"`
	NoData bool            `json:"no_data,omitempty"`
}

// Headline returns the value shown on a KPI card: the total for energy, the mean
// otherwise. ok is false when there is no data.
func (k KPI) Headline() (float64, bool) {
	if k.NoData {
		return 0, false
	}
	if k.Metric.Reducer() == readings.ReducerSum && k.Sum != nil {
		return *k.Sum, true
	}
	if k.Mean != nil {
		return *k.Mean, true
	}
	return 0, false
}

// Result is the outcome of one aggregation request
type Result struct {
	Granularity Granularity     `json:"granularity"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	RowCount    int             `json:"row_count"`
	NoData      bool            `json:"no_data"`
	Series      []string        `json:"series"`
	Buckets     []BucketResult  `json:"buckets"`
	KPIs        map[string]KPI  `json:"kpis"`
	Missing     []MissingSeries `json:"missing,omitempty"`
}

// Filter returns the readings with req.Start <= t <= req.End. The result aliases
// the store and must not be modified.
func Filter(store *readings.Store, req Request) []readings.Reading {
	return store.Between(req.Start, req.End)
}

// Aggregate groups rows into buckets of req.Granularity, in ascending order, and
// reduces each series with its metric's reducer. Rows need not be sorted.
func Aggregate(rows []readings.Reading, series []readings.SeriesKey, req Request) []BucketResult {
	type state struct {
		bucket Bucket
		rows   int
		accs   []Accumulator
	}

	byStart := make(map[int64]*state)
	for _, r := range rows {
		b := BucketFor(r.Time, req.Granularity)
		key := b.Start.UnixNano()
		st, ok := byStart[key]
		if !ok {
			st = &state{bucket: b, accs: make([]Accumulator, len(series))}
			byStart[key] = st
		}
		st.rows++
		for i, k := range series {
			if v, ok := r.Values[k]; ok {
				st.accs[i].Add(v, r.Time)
			}
		}
	}

	states := make([]*state, 0, len(byStart))
	for _, st := range byStart {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].bucket.Start.Before(states[j].bucket.Start)
	})

	out := make([]BucketResult, len(states))
	for i, st := range states {
		values := make(map[string]Value, len(series))
		for j, k := range series {
			values[k.Name()] = reduce(&st.accs[j], k.Metric, req.Detail)
		}
		out[i] = BucketResult{Bucket: st.bucket, Rows: st.rows, Values: values}
	}
	return out
}

func reduce(acc *Accumulator, metric readings.Metric, detail bool) Value {
	if acc.Empty() {
		return Value{NoData: true}
	}

	v := Value{Count: acc.Count}
	if metric.Reducer() == readings.ReducerSum {
		v.Value = ptr(acc.Sum)
	} else {
		mean, _ := acc.Mean()
		v.Value = ptr(mean)
	}
	if detail {
		v.Min = ptr(acc.Min)
		v.Max = ptr(acc.Max)
	}
	return v
}

// Summarize reduces every series over the whole row set, without bucketing
func Summarize(rows []readings.Reading, series []readings.SeriesKey) map[string]KPI {
	accs := make([]Accumulator, len(series))
	for _, r := range rows {
		for i, k := range series {
			if v, ok := r.Values[k]; ok {
				accs[i].Add(v, r.Time)
			}
		}
	}

	out := make(map[string]KPI, len(series))
	for i, k := range series {
		acc := &accs[i]
		kpi := KPI{Room: k.Room, Metric: k.Metric, Unit: k.Metric.Unit(), Count: acc.Count}
		if acc.Empty() {
			kpi.NoData = true
			out[k.Name()] = kpi
			continue
		}
		if k.Metric.Reducer() == readings.ReducerSum {
			kpi.Sum = ptr(acc.Sum)
		}
		mean, _ := acc.Mean()
		kpi.Mean = ptr(mean)
		kpi.Min = ptr(acc.Min)
		kpi.Max = ptr(acc.Max)
		minAt, maxAt := acc.MinTime, acc.MaxTime
		kpi.MinAt = &minAt
		kpi.MaxAt = &maxAt
		out[k.Name()] = kpi
	}
	return out
}

// Compute runs one request against the store: normalize and validate, resolve
// series against the schema, filter by time range, then bucket and summarize.
// An empty filtered set is not an error; Result.NoData is set instead.
func Compute(store *readings.Store, req Request) (*Result, error) {
	req, err := req.Normalize(store)
	if err != nil {
		return nil, err
	}

	series, missing := ResolveSeries(store.Schema(), req)
	rows := Filter(store, req)

	names := make([]string, len(series))
	for i, k := range series {
		names[i] = k.Name()
	}

	return &Result{
		Granularity: req.Granularity,
		Start:       req.Start,
		End:         req.End,
		RowCount:    len(rows),
		NoData:      len(rows) == 0,
		Series:      names,
		Buckets:     Aggregate(rows, series, req),
		KPIs:        Summarize(rows, series),
		Missing:     missing,
	}, nil
}

func ptr(v float64) *float64 {
	return &v
}
