package readings

import (
	"sort"
	"time"
)

// Reading is one timestamped source row
type Reading struct {
	Time   time.Time
	Line   int                   // 1-based line (or spreadsheet row) in the source
	Values map[SeriesKey]float64 // absent key = empty or non-numeric cell
	Raw    []string              // original cells, for pass-through export
}

// Value returns the value of a series and whether it was present
func (r Reading) Value(key SeriesKey) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// LoadStats describes what happened while loading the source
type LoadStats struct {
	Rows         int   `json:"rows"`          // data rows seen
	Loaded       int   `json:"loaded"`        // rows kept
	Dropped      int   `json:"dropped"`       // rows dropped for unparseable timestamps
	DroppedLines []int `json:"dropped_lines"` // source lines of dropped rows
}

// Store is the immutable, time-sorted set of readings of one dataset
type Store struct {
	source   string
	schema   *Schema
	readings []Reading
	stats    LoadStats
}

// NewStore takes ownership of readings and sorts them by time. Rows with equal
// timestamps keep their source order.
func NewStore(source string, schema *Schema, rows []Reading, stats LoadStats) *Store {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time.Before(rows[j].Time)
	})
	return &Store{
		source:   source,
		schema:   schema,
		readings: rows,
		stats:    stats,
	}
}

// Source returns the path or name the store was loaded from
func (s *Store) Source() string { return s.source }

// Schema returns the column schema
func (s *Store) Schema() *Schema { return s.schema }

// Stats returns the load statistics
func (s *Store) Stats() LoadStats { return s.stats }

// Len returns the number of readings
func (s *Store) Len() int { return len(s.readings) }

// Readings returns the time-sorted readings. Callers must not modify the slice.
func (s *Store) Readings() []Reading { return s.readings }

// Span returns the first and last reading time. ok is false for an empty store.
func (s *Store) Span() (first, last time.Time, ok bool) {
	if len(s.readings) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.readings[0].Time, s.readings[len(s.readings)-1].Time, true
}

// Between returns the readings with start <= t <= end. The returned slice aliases
// the store and must not be modified.
func (s *Store) Between(start, end time.Time) []Reading {
	lo := sort.Search(len(s.readings), func(i int) bool {
		return !s.readings[i].Time.Before(start)
	})
	hi := sort.Search(len(s.readings), func(i int) bool {
		return s.readings[i].Time.After(end)
	})
	if lo >= hi {
		return nil
	}
	return s.readings[lo:hi]
}
